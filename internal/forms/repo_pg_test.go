package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateFormInsertsQuestionsAndOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO application_forms").
		WithArgs("Recruitment", nil, StatusDraft, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectQuery("INSERT INTO questions").
		WithArgs(int64(11), TypeSingleChoice, "Track", false, 1, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery("INSERT INTO question_options").
		WithArgs(int64(21), "Backend", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()

	id, err := repo.CreateForm(context.Background(),
		Form{Title: "Recruitment", Status: StatusDraft},
		[]NewQuestion{{
			Question: Question{Type: TypeSingleChoice, Content: "Track", Order: 1},
			Options:  []Option{{Content: "Backend", Order: 1}},
		}},
	)
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected form id 11, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteQuestionResequencesSiblings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT form_id FROM questions").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"form_id"}).AddRow(int64(2)))
	mock.ExpectExec("DELETE FROM questions").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id FROM questions WHERE form_id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(9)))
	mock.ExpectExec("UPDATE questions SET question_order").
		WithArgs(int64(7), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE questions SET question_order").
		WithArgs(int64(9), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteQuestion(context.Background(), 5); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteQuestionMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT form_id FROM questions").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"form_id"}))
	mock.ExpectRollback()

	if err := repo.DeleteQuestion(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateFormMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE application_forms").
		WithArgs(int64(99), "t", nil, StatusDraft, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateForm(context.Background(), Form{ID: 99, Title: "t", Status: StatusDraft})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
