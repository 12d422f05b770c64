package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"bsslab-backend/internal/applications"
	"bsslab-backend/internal/auth"
	"bsslab-backend/internal/forms"
	"bsslab-backend/internal/posts"
	"bsslab-backend/internal/queue"
	"bsslab-backend/internal/shared/config"
	"bsslab-backend/internal/shared/server"
	"bsslab-backend/internal/shared/storage/db"
	"bsslab-backend/internal/shared/storage/object"
	localstore "bsslab-backend/internal/shared/storage/object/local"
	s3store "bsslab-backend/internal/shared/storage/object/s3"
	"bsslab-backend/internal/users"
)

// App holds shared dependencies built from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo        users.Repo
	PostsRepo        posts.Repo
	FormsRepo        forms.Repo
	ApplicationsRepo applications.Repo

	AuthService         *auth.Service
	GoogleAuth          *auth.GoogleService
	UsersService        *users.Service
	PostsService        *posts.Service
	FormsService        *forms.Service
	ApplicationsService *applications.Service

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	PostsHandler        *posts.Handler
	FormsHandler        *forms.Handler
	ApplicationsHandler *applications.Handler
}

// Build prepares all dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              app.Config,
		AuthHandler:         app.AuthHandler,
		GoogleAuth:          app.GoogleAuth,
		UsersHandler:        app.UsersHandler,
		PostsHandler:        app.PostsHandler,
		FormsHandler:        app.FormsHandler,
		ApplicationsHandler: app.ApplicationsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SubmissionQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SubmissionQueueURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var (
		userRepo users.Repo
		postRepo posts.Repo
		formRepo forms.Repo
		appRepo  applications.Repo
	)

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		postRepo = &posts.PGRepo{DB: app.DB}
		formRepo = &forms.PGRepo{DB: app.DB}
		appRepo = &applications.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		postRepo = posts.NewMemoryRepo()
		memForms := forms.NewMemoryRepo()
		memApps := applications.NewMemoryRepo()
		// The memory forms repo has no applications table to count from.
		memForms.SetApplicationCounter(func(formID int64) int {
			count, err := memApps.CountByForm(context.Background(), formID)
			if err != nil {
				return 0
			}
			return count
		})
		formRepo = memForms
		appRepo = memApps
	}

	authSvc := auth.NewService(userRepo)
	userSvc := users.NewService(userRepo)
	postSvc := posts.NewService(postRepo, userRepo, app.Store)
	formSvc := forms.NewService(formRepo)
	appSvc := applications.NewService(appRepo, formRepo, app.Queue)

	app.UsersRepo = userRepo
	app.PostsRepo = postRepo
	app.FormsRepo = formRepo
	app.ApplicationsRepo = appRepo

	app.AuthService = authSvc
	app.GoogleAuth = auth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		authSvc,
	)
	app.UsersService = userSvc
	app.PostsService = postSvc
	app.FormsService = formSvc
	app.ApplicationsService = appSvc

	app.AuthHandler = auth.NewHandler(authSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.PostsHandler = posts.NewHandler(postSvc)
	app.FormsHandler = forms.NewHandler(formSvc)
	app.ApplicationsHandler = applications.NewHandler(appSvc)
}
