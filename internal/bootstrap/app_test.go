package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"bsslab-backend/internal/applications"
	"bsslab-backend/internal/forms"
	sharedauth "bsslab-backend/internal/shared/auth"
	"bsslab-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := Build(config.Config{
		Env:           "dev",
		LocalStoreDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return app
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:      "1",
		Username: "admin",
		Email:    "admin@bsslab.dev",
		Role:     "ADMIN",
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRecruitmentFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	admin := adminToken(t)

	createForm := map[string]any{
		"title":  "2026 Spring Recruitment",
		"status": "PUBLISHED",
		"questions": []map[string]any{
			{"questionType": "SHORT_TEXT", "content": "Why us?", "required": true},
			{"questionType": "SINGLE_CHOICE", "content": "Track", "options": []map[string]any{
				{"content": "Backend"},
				{"content": "Frontend"},
			}},
		},
	}

	if rec := doJSON(t, app, http.MethodPost, "/api/v1/admin/forms", "", createForm); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := doJSON(t, app, http.MethodPost, "/api/v1/admin/forms", admin, createForm)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create form: %d %s", rec.Code, rec.Body.String())
	}
	form := decode[forms.FormDetail](t, rec)
	if len(form.Questions) != 2 || len(form.Questions[1].Options) != 2 {
		t.Fatalf("unexpected form shape: %+v", form)
	}

	formPath := "/api/v1/forms/" + itoa(form.ID)
	submitPath := formPath + "/applications"
	submit := map[string]any{
		"applicantName":  "Guest Kim",
		"applicantEmail": "guest@bsslab.dev",
		"status":         "SUBMITTED",
		"answers": []map[string]any{
			{"questionId": form.Questions[0].ID, "textValue": "great lab"},
			{"questionId": form.Questions[1].ID, "selectedOptionIds": []int64{form.Questions[1].Options[0].ID}},
		},
	}

	rec = doJSON(t, app, http.MethodPost, submitPath, "", submit)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[applications.Detail](t, rec)
	if created.Status != applications.StatusSubmitted || created.SubmittedAt == nil {
		t.Fatalf("unexpected application: %+v", created)
	}
	if len(created.Answers) != 2 || created.Answers[1].SelectedOptions[0].Content != "Backend" {
		t.Fatalf("unexpected answers: %+v", created.Answers)
	}

	if rec := doJSON(t, app, http.MethodPost, submitPath, "", submit); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate submit, got %d: %s", rec.Code, rec.Body.String())
	}

	statusPath := "/api/v1/admin/applications/" + itoa(created.ID) + "/status"
	rec = doJSON(t, app, http.MethodPatch, statusPath, admin, map[string]any{
		"status":          "UNDER_REVIEW",
		"reviewerComment": "looks promising",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status: %d %s", rec.Code, rec.Body.String())
	}
	reviewed := decode[applications.Detail](t, rec)
	if reviewed.Status != applications.StatusUnderReview || reviewed.ReviewedAt == nil {
		t.Fatalf("unexpected review state: %+v", reviewed)
	}
	if reviewed.ReviewerComment != "looks promising" {
		t.Fatalf("unexpected comment %q", reviewed.ReviewerComment)
	}

	rec = doJSON(t, app, http.MethodGet, "/api/v1/forms/active", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list active: %d %s", rec.Code, rec.Body.String())
	}
	active := decode[[]forms.FormListItem](t, rec)
	if len(active) != 1 || active[0].ID != form.ID {
		t.Fatalf("unexpected active forms: %+v", active)
	}
	if active[0].ApplicationCount != 1 {
		t.Fatalf("expected application count 1, got %d", active[0].ApplicationCount)
	}
}

func TestSignupLoginAndPostFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)

	rec := doJSON(t, app, http.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username": "writer",
		"email":    "writer@bsslab.dev",
		"password": "pass-word-123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "writer",
		"password": "pass-word-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	login := decode[map[string]any](t, rec)
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatalf("missing token in login response: %s", rec.Body.String())
	}

	if rec := doJSON(t, app, http.MethodPost, "/api/v1/posts", "", map[string]any{
		"title": "nope", "content": "x",
	}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest post, got %d", rec.Code)
	}

	rec = doJSON(t, app, http.MethodPost, "/api/v1/posts", token, map[string]any{
		"title":   "First entry",
		"content": "welcome to the lab blog",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", rec.Code, rec.Body.String())
	}
	post := decode[map[string]any](t, rec)
	id, _ := post["id"].(float64)
	if id == 0 {
		t.Fatalf("missing post id: %s", rec.Body.String())
	}

	rec = doJSON(t, app, http.MethodGet, "/api/v1/posts/"+itoa(int64(id)), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: %d %s", rec.Code, rec.Body.String())
	}
	detail := decode[map[string]any](t, rec)
	if detail["author"] != "writer" {
		t.Fatalf("unexpected author: %v", detail["author"])
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
