package forms

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo on Postgres.
type PGRepo struct {
	DB *sql.DB
}

const formColumns = "id, title, description, status, start_date, end_date, created_at, updated_at"

func (r *PGRepo) CreateForm(ctx context.Context, form Form, questions []NewQuestion) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const insertForm = `
INSERT INTO application_forms (title, description, status, start_date, end_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING id`
	var formID int64
	if err := tx.QueryRowContext(ctx, insertForm,
		form.Title,
		nullableString(form.Description),
		form.Status,
		form.StartDate,
		form.EndDate,
	).Scan(&formID); err != nil {
		return 0, err
	}

	for _, nq := range questions {
		questionID, err := insertQuestionTx(ctx, tx, formID, nq.Question)
		if err != nil {
			return 0, err
		}
		for _, opt := range nq.Options {
			if _, err := insertOptionTx(ctx, tx, questionID, opt); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return formID, nil
}

func (r *PGRepo) GetForm(ctx context.Context, id int64) (Form, error) {
	const query = `SELECT ` + formColumns + ` FROM application_forms WHERE id = $1 LIMIT 1`
	form, err := scanForm(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Form{}, ErrNotFound
		}
		return Form{}, err
	}
	return form, nil
}

func (r *PGRepo) ListForms(ctx context.Context, status string, limit, offset int) ([]Form, error) {
	query := `SELECT ` + formColumns + ` FROM application_forms`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectForms(rows)
}

func (r *PGRepo) ListActiveForms(ctx context.Context, now time.Time) ([]Form, error) {
	const query = `
SELECT ` + formColumns + `
FROM application_forms
WHERE status = 'PUBLISHED'
  AND (start_date IS NULL OR start_date <= $1)
  AND (end_date IS NULL OR end_date >= $1)
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectForms(rows)
}

func (r *PGRepo) UpdateForm(ctx context.Context, form Form) error {
	const query = `
UPDATE application_forms
SET title = $2, description = $3, status = $4, start_date = $5, end_date = $6, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		form.ID,
		form.Title,
		nullableString(form.Description),
		form.Status,
		form.StartDate,
		form.EndDate,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) DeleteForm(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM application_forms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) AddQuestion(ctx context.Context, question Question, options []Option) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	questionID, err := insertQuestionTx(ctx, tx, question.FormID, question)
	if err != nil {
		return 0, err
	}
	for _, opt := range options {
		if _, err := insertOptionTx(ctx, tx, questionID, opt); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return questionID, nil
}

const questionColumns = "id, form_id, question_type, content, required, question_order, placeholder, help_text, created_at, updated_at"

func (r *PGRepo) GetQuestion(ctx context.Context, id int64) (Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1 LIMIT 1`
	question, err := scanQuestion(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return question, nil
}

func (r *PGRepo) ListQuestions(ctx context.Context, formID int64) ([]Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE form_id = $1 ORDER BY question_order ASC`
	rows, err := r.DB.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, question)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountQuestions(ctx context.Context, formID int64) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE form_id = $1`, formID).Scan(&count)
	return count, err
}

func (r *PGRepo) UpdateQuestion(ctx context.Context, question Question) error {
	const query = `
UPDATE questions
SET question_type = $2, content = $3, required = $4, question_order = $5,
    placeholder = $6, help_text = $7, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		question.ID,
		question.Type,
		question.Content,
		question.Required,
		question.Order,
		nullableString(question.Placeholder),
		nullableString(question.HelpText),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) DeleteQuestion(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var formID int64
	if err := tx.QueryRowContext(ctx, `SELECT form_id FROM questions WHERE id = $1`, id).Scan(&formID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return err
	}

	if err := resequenceTx(ctx, tx,
		`SELECT id FROM questions WHERE form_id = $1 ORDER BY question_order ASC`,
		`UPDATE questions SET question_order = $2, updated_at = now() WHERE id = $1`,
		formID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

const optionColumns = "id, question_id, content, option_order, created_at, updated_at"

func (r *PGRepo) AddOption(ctx context.Context, option Option) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertOptionTx(ctx, tx, option.QuestionID, option)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PGRepo) GetOption(ctx context.Context, id int64) (Option, error) {
	const query = `SELECT ` + optionColumns + ` FROM question_options WHERE id = $1 LIMIT 1`
	option, err := scanOption(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Option{}, ErrNotFound
		}
		return Option{}, err
	}
	return option, nil
}

func (r *PGRepo) ListOptions(ctx context.Context, questionID int64) ([]Option, error) {
	const query = `SELECT ` + optionColumns + ` FROM question_options WHERE question_id = $1 ORDER BY option_order ASC`
	rows, err := r.DB.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		option, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, option)
	}
	return out, rows.Err()
}

func (r *PGRepo) CountOptions(ctx context.Context, questionID int64) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM question_options WHERE question_id = $1`, questionID).Scan(&count)
	return count, err
}

func (r *PGRepo) UpdateOption(ctx context.Context, option Option) error {
	const query = `
UPDATE question_options
SET content = $2, option_order = $3, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, option.ID, option.Content, option.Order)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) DeleteOption(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var questionID int64
	if err := tx.QueryRowContext(ctx, `SELECT question_id FROM question_options WHERE id = $1`, id).Scan(&questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM question_options WHERE id = $1`, id); err != nil {
		return err
	}

	if err := resequenceTx(ctx, tx,
		`SELECT id FROM question_options WHERE question_id = $1 ORDER BY option_order ASC`,
		`UPDATE question_options SET option_order = $2, updated_at = now() WHERE id = $1`,
		questionID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepo) CountApplications(ctx context.Context, formID int64) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications WHERE form_id = $1`, formID).Scan(&count)
	return count, err
}

// resequenceTx reloads surviving siblings in their current order and rewrites
// order values to a contiguous 1..N sequence. Not safe against a concurrent
// writer on the same parent; the caller's transaction is the only guard.
func resequenceTx(ctx context.Context, tx *sql.Tx, selectQuery, updateQuery string, parentID int64) error {
	rows, err := tx.QueryContext(ctx, selectQuery, parentID)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, updateQuery, id, i+1); err != nil {
			return err
		}
	}
	return nil
}

func insertQuestionTx(ctx context.Context, tx *sql.Tx, formID int64, question Question) (int64, error) {
	const query = `
INSERT INTO questions (form_id, question_type, content, required, question_order, placeholder, help_text, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query,
		formID,
		question.Type,
		question.Content,
		question.Required,
		question.Order,
		nullableString(question.Placeholder),
		nullableString(question.HelpText),
	).Scan(&id)
	return id, err
}

func insertOptionTx(ctx context.Context, tx *sql.Tx, questionID int64, option Option) (int64, error) {
	const query = `
INSERT INTO question_options (question_id, content, option_order, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query, questionID, option.Content, option.Order).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (Form, error) {
	var form Form
	var description sql.NullString
	var startDate, endDate sql.NullTime
	err := row.Scan(
		&form.ID,
		&form.Title,
		&description,
		&form.Status,
		&startDate,
		&endDate,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err != nil {
		return Form{}, err
	}
	form.Description = description.String
	if startDate.Valid {
		t := startDate.Time
		form.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		form.EndDate = &t
	}
	return form, nil
}

func collectForms(rows *sql.Rows) ([]Form, error) {
	var out []Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, form)
	}
	return out, rows.Err()
}

func scanQuestion(row rowScanner) (Question, error) {
	var question Question
	var placeholder, helpText sql.NullString
	err := row.Scan(
		&question.ID,
		&question.FormID,
		&question.Type,
		&question.Content,
		&question.Required,
		&question.Order,
		&placeholder,
		&helpText,
		&question.CreatedAt,
		&question.UpdatedAt,
	)
	if err != nil {
		return Question{}, err
	}
	question.Placeholder = placeholder.String
	question.HelpText = helpText.String
	return question, nil
}

func scanOption(row rowScanner) (Option, error) {
	var option Option
	err := row.Scan(
		&option.ID,
		&option.QuestionID,
		&option.Content,
		&option.Order,
		&option.CreatedAt,
		&option.UpdatedAt,
	)
	if err != nil {
		return Option{}, err
	}
	return option, nil
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
