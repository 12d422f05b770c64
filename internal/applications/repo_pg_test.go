package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateApplicationWithAnswers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO applications").
		WithArgs(int64(3), nil, "Guest Kim", "guest@bsslab.dev", nil, StatusSubmitted, submitted, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectQuery("INSERT INTO application_answers").
		WithArgs(int64(41), int64(7), "backend please").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(51)))
	mock.ExpectExec("INSERT INTO answer_selected_options").
		WithArgs(int64(51), int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.CreateApplication(context.Background(),
		Application{
			FormID:         3,
			ApplicantName:  "Guest Kim",
			ApplicantEmail: "guest@bsslab.dev",
			Status:         StatusSubmitted,
			SubmittedAt:    &submitted,
		},
		[]Answer{{QuestionID: 7, TextValue: "backend please", SelectedOptionIDs: []int64{9}}},
	)
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if id != 41 {
		t.Fatalf("expected application id 41, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoHasActiveByUserAndByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	userID := int64(12)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3), userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`user_id IS NULL AND lower\(applicant_email\) = lower`).
		WithArgs(int64(3), "guest@bsslab.dev").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	active, err := repo.HasActive(context.Background(), 3, &userID, "")
	if err != nil {
		t.Fatalf("HasActive(user): %v", err)
	}
	if !active {
		t.Fatalf("expected active application for user")
	}

	active, err = repo.HasActive(context.Background(), 3, nil, "guest@bsslab.dev")
	if err != nil {
		t.Fatalf("HasActive(email): %v", err)
	}
	if active {
		t.Fatalf("expected no active application for guest")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateAnswerReplacesSelectedOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE application_answers").
		WithArgs(int64(51), "revised").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM answer_selected_options").
		WithArgs(int64(51)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO answer_selected_options").
		WithArgs(int64(51), int64(8)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO answer_selected_options").
		WithArgs(int64(51), int64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.UpdateAnswer(context.Background(), Answer{
		ID:                51,
		TextValue:         "revised",
		SelectedOptionIDs: []int64{8, 10},
	})
	if err != nil {
		t.Fatalf("UpdateAnswer: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE applications").
		WithArgs(int64(99), "n", "e@bsslab.dev", nil, StatusDraft, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), Application{
		ID:             99,
		ApplicantName:  "n",
		ApplicantEmail: "e@bsslab.dev",
		Status:         StatusDraft,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
