// Package sqlstore implements quizstore.Driver over database/sql. Queries are
// built for the connection's dialect with ent's SQL builder and executed
// through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/papercomputeco/studyrag/pkg/quiz"
	"github.com/papercomputeco/studyrag/pkg/quizstore"
)

const (
	quizzesTable  = "quizzes"
	attemptsTable = "quiz_attempts"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		document_id TEXT NOT NULL DEFAULT '',
		questions TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quizzes_owner ON quizzes(owner_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id TEXT PRIMARY KEY,
		quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
		owner_id TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		total_questions INTEGER NOT NULL,
		completed_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_owner ON quiz_attempts(owner_id, completed_at)`,
}

var (
	quizColumns    = []string{"id", "owner_id", "topic", "document_id", "questions", "created_at"}
	attemptColumns = []string{"id", "quiz_id", "owner_id", "score", "total_questions", "completed_at"}
)

type quizRow struct {
	ID         string    `db:"id"`
	OwnerID    string    `db:"owner_id"`
	Topic      string    `db:"topic"`
	DocumentID string    `db:"document_id"`
	Questions  string    `db:"questions"`
	CreatedAt  time.Time `db:"created_at"`
}

type attemptRow struct {
	ID             string    `db:"id"`
	QuizID         string    `db:"quiz_id"`
	OwnerID        string    `db:"owner_id"`
	Score          float64   `db:"score"`
	TotalQuestions int       `db:"total_questions"`
	CompletedAt    time.Time `db:"completed_at"`
}

// Driver implements quizstore.Driver for any dialect ent can build for.
type Driver struct {
	DB      *sqlx.DB
	dialect string
}

// New wraps db, creating the schema if needed. dialect is one of ent's
// dialect names, e.g. dialect.SQLite or dialect.Postgres.
func New(ctx context.Context, db *sqlx.DB, dialect string) (*Driver, error) {
	d := &Driver{DB: db, dialect: dialect}
	if err := d.initSchema(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating quiz schema: %w", err)
		}
	}
	return nil
}

func (d *Driver) Save(ctx context.Context, q *quizstore.Quiz) (*quizstore.Quiz, error) {
	if err := quizstore.ValidateQuiz(q); err != nil {
		return nil, err
	}

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return nil, fmt.Errorf("encoding questions: %w", err)
	}

	stored := *q
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query, args := entsql.Dialect(d.dialect).
		Insert(quizzesTable).
		Columns(quizColumns...).
		Values(stored.ID, stored.OwnerID, stored.Topic, stored.DocumentID, string(questions), stored.CreatedAt).
		Query()

	if _, err := d.DB.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting quiz: %w", err)
	}

	return &stored, nil
}

func (d *Driver) Get(ctx context.Context, ownerID, id string) (*quizstore.Quiz, error) {
	query, args := entsql.Dialect(d.dialect).
		Select(quizColumns...).
		From(entsql.Table(quizzesTable)).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("owner_id", ownerID),
		)).
		Query()

	var row quizRow
	if err := d.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, quizstore.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("getting quiz: %w", err)
	}

	return row.toQuiz()
}

func (d *Driver) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*quizstore.Quiz, error) {
	limit, offset = quizstore.Page(limit, offset)

	query, args := entsql.Dialect(d.dialect).
		Select(quizColumns...).
		From(entsql.Table(quizzesTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(limit).
		Offset(offset).
		Query()

	var rows []quizRow
	if err := d.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing quizzes: %w", err)
	}

	quizzes := make([]*quizstore.Quiz, 0, len(rows))
	for _, r := range rows {
		q, err := r.toQuiz()
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, nil
}

func (d *Driver) SaveAttempt(ctx context.Context, a *quizstore.Attempt) (*quizstore.Attempt, error) {
	if err := quizstore.ValidateAttempt(a); err != nil {
		return nil, err
	}
	if _, err := d.Get(ctx, a.OwnerID, a.QuizID); err != nil {
		return nil, err
	}

	stored := *a
	stored.ID = uuid.NewString()
	stored.CompletedAt = time.Now().UTC().Truncate(time.Microsecond)

	query, args := entsql.Dialect(d.dialect).
		Insert(attemptsTable).
		Columns(attemptColumns...).
		Values(stored.ID, stored.QuizID, stored.OwnerID, stored.Score, stored.TotalQuestions, stored.CompletedAt).
		Query()

	if _, err := d.DB.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting quiz attempt: %w", err)
	}

	return &stored, nil
}

func (d *Driver) ListAttempts(ctx context.Context, ownerID string, limit, offset int) ([]*quizstore.Attempt, error) {
	limit, offset = quizstore.Page(limit, offset)

	query, args := entsql.Dialect(d.dialect).
		Select(attemptColumns...).
		From(entsql.Table(attemptsTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("completed_at"), entsql.Desc("id")).
		Limit(limit).
		Offset(offset).
		Query()

	var rows []attemptRow
	if err := d.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing quiz attempts: %w", err)
	}

	attempts := make([]*quizstore.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, &quizstore.Attempt{
			ID:             r.ID,
			QuizID:         r.QuizID,
			OwnerID:        r.OwnerID,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			CompletedAt:    r.CompletedAt.UTC(),
		})
	}
	return attempts, nil
}

func (d *Driver) Close() error {
	return d.DB.Close()
}

func (r quizRow) toQuiz() (*quizstore.Quiz, error) {
	var questions []quiz.Question
	if err := json.Unmarshal([]byte(r.Questions), &questions); err != nil {
		return nil, fmt.Errorf("decoding questions of quiz %s: %w", r.ID, err)
	}
	return &quizstore.Quiz{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		Topic:      r.Topic,
		DocumentID: r.DocumentID,
		Questions:  questions,
		CreatedAt:  r.CreatedAt.UTC(),
	}, nil
}
