package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/authkeep/authkeep/internal/task/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, tenant_id, type, status, payload, result, error, progress, created_at, started_at, completed_at`

// GetByID returns the task for id within the tenant, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListByStatus returns tasks in the given status, oldest first.
func (r *PostgresRepository) ListByStatus(ctx context.Context, tenantID, status string, limit, offset int32) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE tenant_id = $1 AND status = $2
		 ORDER BY created_at ASC LIMIT $3 OFFSET $4`,
		tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create persists the task. The task must have ID and TenantID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, tenant_id, type, status, payload, result, error, progress, created_at, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.TenantID, t.Type, t.Status, t.Payload, t.Result, t.Error, t.Progress,
		t.CreatedAt, nullTime(t.StartedAt), nullTime(t.CompletedAt))
	return err
}

// Update persists the task's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET status = $3, result = $4, error = $5, progress = $6, started_at = $7, completed_at = $8
		 WHERE tenant_id = $1 AND id = $2`,
		t.TenantID, t.ID, t.Status, t.Result, t.Error, t.Progress,
		nullTime(t.StartedAt), nullTime(t.CompletedAt))
	return err
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t                      domain.Task
		startedAt, completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.TenantID, &t.Type, &t.Status, &t.Payload, &t.Result, &t.Error,
		&t.Progress, &t.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}
