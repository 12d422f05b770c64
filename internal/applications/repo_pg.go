package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = "id, form_id, user_id, applicant_name, applicant_email, applicant_phone, status, submitted_at, reviewed_at, reviewer_comment, created_at, updated_at"

func (r *PGRepo) CreateApplication(ctx context.Context, app Application, answers []Answer) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const insertApp = `
INSERT INTO applications (form_id, user_id, applicant_name, applicant_email, applicant_phone,
                          status, submitted_at, reviewed_at, reviewer_comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
RETURNING id`
	var appID int64
	if err := tx.QueryRowContext(ctx, insertApp,
		app.FormID,
		app.UserID,
		app.ApplicantName,
		app.ApplicantEmail,
		nullableString(app.ApplicantPhone),
		app.Status,
		app.SubmittedAt,
		app.ReviewedAt,
		nullableString(app.ReviewerComment),
	).Scan(&appID); err != nil {
		return 0, err
	}

	for _, answer := range answers {
		answer.ApplicationID = appID
		if _, err := insertAnswerTx(ctx, tx, answer); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return appID, nil
}

func (r *PGRepo) Get(ctx context.Context, id int64) (Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var clauses []string
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.FormID != 0 {
		clauses = append(clauses, "form_id = "+arg(filter.FormID))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = "+arg(filter.Status))
	}
	if filter.UserID != 0 {
		clauses = append(clauses, "user_id = "+arg(filter.UserID))
	}
	if filter.Email != "" {
		clauses = append(clauses, "lower(applicant_email) = lower("+arg(filter.Email)+")")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, app Application) error {
	const query = `
UPDATE applications
SET applicant_name = $2, applicant_email = $3, applicant_phone = $4, status = $5,
    submitted_at = $6, reviewed_at = $7, reviewer_comment = $8, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		app.ID,
		app.ApplicantName,
		app.ApplicantEmail,
		nullableString(app.ApplicantPhone),
		app.Status,
		app.SubmittedAt,
		app.ReviewedAt,
		nullableString(app.ReviewerComment),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) HasActive(ctx context.Context, formID int64, userID *int64, email string) (bool, error) {
	var query string
	var ident any
	if userID != nil {
		query = `SELECT EXISTS (
SELECT 1 FROM applications
WHERE form_id = $1 AND user_id = $2 AND status IN ('SUBMITTED', 'UNDER_REVIEW', 'ACCEPTED'))`
		ident = *userID
	} else {
		query = `SELECT EXISTS (
SELECT 1 FROM applications
WHERE form_id = $1 AND user_id IS NULL AND lower(applicant_email) = lower($2)
  AND status IN ('SUBMITTED', 'UNDER_REVIEW', 'ACCEPTED'))`
		ident = email
	}
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, formID, ident).Scan(&exists)
	return exists, err
}

func (r *PGRepo) CountByForm(ctx context.Context, formID int64) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE form_id = $1`, formID).Scan(&count)
	return count, err
}

const answerColumns = "id, application_id, question_id, text_value, created_at, updated_at"

func (r *PGRepo) ListAnswers(ctx context.Context, applicationID int64) ([]Answer, error) {
	const query = `SELECT ` + answerColumns + ` FROM application_answers WHERE application_id = $1 ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, answer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := r.selectedOptions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].SelectedOptionIDs = ids
	}
	return out, nil
}

func (r *PGRepo) GetAnswer(ctx context.Context, applicationID, questionID int64) (Answer, error) {
	const query = `SELECT ` + answerColumns + ` FROM application_answers WHERE application_id = $1 AND question_id = $2 LIMIT 1`
	answer, err := scanAnswer(r.DB.QueryRowContext(ctx, query, applicationID, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Answer{}, ErrNotFound
		}
		return Answer{}, err
	}
	ids, err := r.selectedOptions(ctx, answer.ID)
	if err != nil {
		return Answer{}, err
	}
	answer.SelectedOptionIDs = ids
	return answer, nil
}

func (r *PGRepo) selectedOptions(ctx context.Context, answerID int64) ([]int64, error) {
	const query = `SELECT option_id FROM answer_selected_options WHERE answer_id = $1 ORDER BY option_id ASC`
	rows, err := r.DB.QueryContext(ctx, query, answerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGRepo) CreateAnswer(ctx context.Context, answer Answer) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertAnswerTx(ctx, tx, answer)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepo) UpdateAnswer(ctx context.Context, answer Answer) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const update = `
UPDATE application_answers
SET text_value = $2, updated_at = now()
WHERE id = $1`
	res, err := tx.ExecContext(ctx, update, answer.ID, nullableString(answer.TextValue))
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM answer_selected_options WHERE answer_id = $1`, answer.ID); err != nil {
		return err
	}
	for _, optionID := range answer.SelectedOptionIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answer_selected_options (answer_id, option_id) VALUES ($1, $2)`,
			answer.ID, optionID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertAnswerTx(ctx context.Context, tx *sql.Tx, answer Answer) (int64, error) {
	const insert = `
INSERT INTO application_answers (application_id, question_id, text_value, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, insert,
		answer.ApplicationID,
		answer.QuestionID,
		nullableString(answer.TextValue),
	).Scan(&id); err != nil {
		return 0, err
	}

	for _, optionID := range answer.SelectedOptionIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO answer_selected_options (answer_id, option_id) VALUES ($1, $2)`,
			id, optionID,
		); err != nil {
			return 0, err
		}
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var userID sql.NullInt64
	var phone, comment sql.NullString
	var submittedAt, reviewedAt sql.NullTime
	err := row.Scan(
		&app.ID,
		&app.FormID,
		&userID,
		&app.ApplicantName,
		&app.ApplicantEmail,
		&phone,
		&app.Status,
		&submittedAt,
		&reviewedAt,
		&comment,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return Application{}, err
	}
	if userID.Valid {
		v := userID.Int64
		app.UserID = &v
	}
	app.ApplicantPhone = phone.String
	app.ReviewerComment = comment.String
	if submittedAt.Valid {
		t := submittedAt.Time
		app.SubmittedAt = &t
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	return app, nil
}

func scanAnswer(row rowScanner) (Answer, error) {
	var answer Answer
	var text sql.NullString
	err := row.Scan(
		&answer.ID,
		&answer.ApplicationID,
		&answer.QuestionID,
		&text,
		&answer.CreatedAt,
		&answer.UpdatedAt,
	)
	if err != nil {
		return Answer{}, err
	}
	answer.TextValue = text.String
	return answer, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
