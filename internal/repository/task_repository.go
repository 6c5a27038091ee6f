package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/dailytasks/internal/database"
	"github.com/gurkanbulca/dailytasks/internal/models"
)

var taskColumns = []string{
	database.ColumnID,
	database.ColumnUserID,
	database.ColumnTitle,
	database.ColumnDescription,
	database.ColumnCreationDate,
	database.ColumnDueDate,
	database.ColumnStatus,
}

// taskRow mirrors the tasks table.
type taskRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	Title        string         `db:"title"`
	Description  sql.NullString `db:"description"`
	CreationDate time.Time      `db:"creation_date"`
	DueDate      time.Time      `db:"due_date"`
	Status       string         `db:"status"`
}

func (r taskRow) toModel() *models.Task {
	return &models.Task{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description.String,
		CreationDate: r.CreationDate.UTC(),
		DueDate:      models.DateOf(r.DueDate),
		Status:       models.Status(r.Status),
	}
}

// TaskRepository stores tasks. Every statement that touches a single task is
// keyed by the (id, user_id) pair, so a task is never reachable by id alone.
type TaskRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{
		db:  db,
		now: time.Now,
	}
}

// List returns the owner's tasks, optionally restricted to one due date,
// ordered by due date then insertion order.
func (r *TaskRepository) List(ctx context.Context, filter ListFilter) ([]*models.Task, error) {
	predicates := []*entsql.Predicate{entsql.EQ(database.ColumnUserID, filter.UserID)}
	if filter.DueDate != nil {
		predicates = append(predicates, entsql.EQ(database.ColumnDueDate, filter.DueDate.String()))
	}

	b := r.db.Builder()
	query, args := b.Select(taskColumns...).
		From(b.Table(database.TasksTable)).
		Where(entsql.And(predicates...)).
		OrderBy(database.ColumnDueDate, database.ColumnID).
		Query()

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

// Create inserts a pending task and returns it with its generated id and
// creation timestamp.
func (r *TaskRepository) Create(ctx context.Context, t *TaskInput) (*models.Task, error) {
	created := r.now().UTC().Truncate(time.Microsecond)

	ins := r.db.Builder().Insert(database.TasksTable).
		Columns(
			database.ColumnUserID,
			database.ColumnTitle,
			database.ColumnDescription,
			database.ColumnCreationDate,
			database.ColumnDueDate,
			database.ColumnStatus,
		).
		Values(
			t.UserID,
			t.Title,
			nullString(t.Description),
			created,
			t.DueDate.String(),
			string(models.StatusPending),
		)

	id, err := insert(ctx, r.db, ins)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return &models.Task{
		ID:           id,
		UserID:       t.UserID,
		Title:        t.Title,
		Description:  t.Description,
		CreationDate: created,
		DueDate:      t.DueDate,
		Status:       models.StatusPending,
	}, nil
}

// GetByID returns the task only when it belongs to userID.
func (r *TaskRepository) GetByID(ctx context.Context, id, userID int64) (*models.Task, error) {
	return r.get(ctx, r.db, id, userID)
}

func (r *TaskRepository) get(ctx context.Context, q sqlx.QueryerContext, id, userID int64) (*models.Task, error) {
	b := r.db.Builder()
	query, args := b.Select(taskColumns...).
		From(b.Table(database.TasksTable)).
		Where(ownedBy(id, userID)).
		Query()

	var row taskRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query task %d: %w", id, err)
	}
	return row.toModel(), nil
}

// Update applies the non-nil fields of input and returns the merged task,
// read back in the same transaction. An empty patch returns the current task.
func (r *TaskRepository) Update(ctx context.Context, id, userID int64, input *TaskUpdateInput) (*models.Task, error) {
	if input.IsEmpty() {
		return r.GetByID(ctx, id, userID)
	}

	upd := r.db.Builder().Update(database.TasksTable)
	if input.Title != nil {
		upd = upd.Set(database.ColumnTitle, *input.Title)
	}
	if input.Description != nil {
		upd = upd.Set(database.ColumnDescription, nullString(*input.Description))
	}
	if input.DueDate != nil {
		upd = upd.Set(database.ColumnDueDate, input.DueDate.String())
	}
	if input.Status != nil {
		upd = upd.Set(database.ColumnStatus, string(*input.Status))
	}
	query, args := upd.Where(ownedBy(id, userID)).Query()

	var task *models.Task
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}

		task, err = r.get(ctx, tx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes the task owned by userID.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	query, args := r.db.Builder().Delete(database.TasksTable).
		Where(ownedBy(id, userID)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func ownedBy(id, userID int64) *entsql.Predicate {
	return entsql.And(
		entsql.EQ(database.ColumnID, id),
		entsql.EQ(database.ColumnUserID, userID),
	)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Types for repository input
type TaskInput struct {
	UserID      int64
	Title       string
	Description string
	DueDate     models.Date
}

// TaskUpdateInput is a partial update; nil fields are left unchanged.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	DueDate     *models.Date
	Status      *models.Status
}

// IsEmpty reports whether the patch changes nothing.
func (u *TaskUpdateInput) IsEmpty() bool {
	return u == nil || (u.Title == nil && u.Description == nil && u.DueDate == nil && u.Status == nil)
}

type ListFilter struct {
	UserID  int64
	DueDate *models.Date
}
