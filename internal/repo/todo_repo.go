package repo

import (
	"context"

	dom "github.com/khatriaman123/Todo/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo provides todo persistence. Every query filters by user_id so a
// row that exists but belongs to someone else is indistinguishable from a
// row that does not exist.
type TodoRepo interface {
	Create(ctx context.Context, userID int64, title string) (dom.Todo, error)
	GetByID(ctx context.Context, userID, id int64) (dom.Todo, error)
	List(ctx context.Context, userID int64) ([]dom.Todo, error)
	Update(ctx context.Context, userID, id int64, patch dom.Todo) (dom.Todo, error)
	Toggle(ctx context.Context, userID, id int64) (dom.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, userID int64, title string) (dom.Todo, error) {
	query := `
		INSERT INTO todos (title, user_id)
		VALUES ($1, $2)
		RETURNING id, title, is_complete, user_id, created_at, updated_at`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, title, userID).Scan(
		&t.ID, &t.Title, &t.IsComplete, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id int64) (dom.Todo, error) {
	query := `
		SELECT id, title, is_complete, user_id, created_at, updated_at
		FROM todos WHERE id = $1 AND user_id = $2`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Title, &t.IsComplete, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTodoRepo) List(ctx context.Context, userID int64) ([]dom.Todo, error) {
	query := `
		SELECT id, title, is_complete, user_id, created_at, updated_at
		FROM todos WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.IsComplete, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) Update(ctx context.Context, userID, id int64, patch dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos SET title = $3, is_complete = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, is_complete, user_id, created_at, updated_at`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id, userID, patch.Title, patch.IsComplete).Scan(
		&t.ID, &t.Title, &t.IsComplete, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *PGTodoRepo) Toggle(ctx context.Context, userID, id int64) (dom.Todo, error) {
	query := `
		UPDATE todos SET is_complete = NOT is_complete, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, is_complete, user_id, created_at, updated_at`
	var t dom.Todo
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Title, &t.IsComplete, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Delete removes the row. Returns pgx.ErrNoRows when nothing matched the
// owner-scoped predicate.
func (r *PGTodoRepo) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
