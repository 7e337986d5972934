package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// formRepo implements FormRepo on the forms and form_questions tables.
type formRepo struct {
	db *sql.DB
}

var formColumns = []string{
	"id", "run_id", "document_id", "title", "description",
	"form_type", "audience", "language", "tone", "source", "prompt",
	"quiz", "status", "error_code", "error_message",
	"edit_url", "responder_url", "item_count", "spec_json",
	"created_at", "updated_at",
}

func (r *formRepo) Save(ctx context.Context, rec *FormRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Insert(FormsTable.Name).
		Columns(formColumns[1:]...).
		Values(rec.RunID, rec.DocumentID, rec.Title, rec.Description,
			rec.FormType, rec.Audience, rec.Language, rec.Tone, rec.Source, rec.Prompt,
			rec.Quiz, rec.Status, rec.ErrorCode, rec.ErrorMessage,
			rec.EditURL, rec.ResponderURL, rec.ItemCount, rec.SpecJSON,
			rec.CreatedAt, rec.UpdatedAt).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert form: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("form id: %w", err)
	}

	if err := insertQuestions(ctx, tx, int(id), rec.Questions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	rec.ID = int(id)
	return nil
}

func (r *formRepo) MarkReady(ctx context.Context, runID, documentID, editURL, responderURL string, itemCount int) error {
	query, args := builder().Update(FormsTable.Name).
		Set("document_id", documentID).
		Set("edit_url", editURL).
		Set("responder_url", responderURL).
		Set("item_count", itemCount).
		Set("status", StatusReady).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("run_id", runID)).
		Query()
	return r.execOne(ctx, "mark form ready", query, args)
}

func (r *formRepo) MarkFailed(ctx context.Context, runID, code, message string) error {
	query, args := builder().Update(FormsTable.Name).
		Set("status", StatusFailed).
		Set("error_code", code).
		Set("error_message", message).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("run_id", runID)).
		Query()
	return r.execOne(ctx, "mark form failed", query, args)
}

func (r *formRepo) UpdateInfo(ctx context.Context, documentID string, rec *FormRecord) error {
	existing, err := r.GetByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("update form %s: %w", documentID, ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Update(FormsTable.Name).
		Set("title", rec.Title).
		Set("description", rec.Description).
		Set("quiz", rec.Quiz).
		Set("item_count", rec.ItemCount).
		Set("spec_json", rec.SpecJSON).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", existing.ID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update form: %w", err)
	}

	query, args = builder().Delete(FormQuestionsTable.Name).
		Where(entsql.EQ("form_id", existing.ID)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	if err := insertQuestions(ctx, tx, existing.ID, rec.Questions); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *formRepo) GetByDocument(ctx context.Context, documentID string) (*FormRecord, error) {
	query, args := builder().Select(formColumns...).
		From(entsql.Table(FormsTable.Name)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy(entsql.Desc("id")).
		Limit(1).
		Query()

	rec, err := scanForm(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Questions, err = r.questions(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *formRepo) List(ctx context.Context, opts QueryOpts) ([]FormRecord, error) {
	sel := builder().Select(formColumns...).
		From(entsql.Table(FormsTable.Name)).
		OrderBy(entsql.Desc("id"))

	var preds []*entsql.Predicate
	if opts.Status != "" {
		preds = append(preds, entsql.EQ("status", opts.Status))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var out []FormRecord
	for rows.Next() {
		rec, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *formRepo) questions(ctx context.Context, formID int) ([]QuestionRecord, error) {
	query, args := builder().Select("position", "question_id", "section", "title", "type", "required").
		From(entsql.Table(FormQuestionsTable.Name)).
		Where(entsql.EQ("form_id", formID)).
		OrderBy("position").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []QuestionRecord
	for rows.Next() {
		var q QuestionRecord
		if err := rows.Scan(&q.Position, &q.QuestionID, &q.Section, &q.Title, &q.Type, &q.Required); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *formRepo) execOne(ctx context.Context, what, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func insertQuestions(ctx context.Context, tx *sql.Tx, formID int, qs []QuestionRecord) error {
	if len(qs) == 0 {
		return nil
	}
	ins := builder().Insert(FormQuestionsTable.Name).
		Columns("form_id", "position", "question_id", "section", "title", "type", "required")
	for _, q := range qs {
		ins.Values(formID, q.Position, q.QuestionID, q.Section, q.Title, q.Type, q.Required)
	}
	query, args := ins.Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func scanForm(s scanner) (*FormRecord, error) {
	var f FormRecord
	err := s.Scan(&f.ID, &f.RunID, &f.DocumentID, &f.Title, &f.Description,
		&f.FormType, &f.Audience, &f.Language, &f.Tone, &f.Source, &f.Prompt,
		&f.Quiz, &f.Status, &f.ErrorCode, &f.ErrorMessage,
		&f.EditURL, &f.ResponderURL, &f.ItemCount, &f.SpecJSON,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan form: %w", err)
	}
	return &f, nil
}
