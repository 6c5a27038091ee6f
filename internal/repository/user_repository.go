package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/gurkanbulca/dailytasks/internal/database"
)

// Credentials is the stored login material for one user.
type Credentials struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

type UserRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{
		db:  db,
		now: time.Now,
	}
}

// Create stores a new user and returns its id. A taken username yields
// ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	ins := r.db.Builder().Insert(database.UsersTable).
		Columns(database.ColumnUsername, database.ColumnPasswordHash, database.ColumnCreatedAt).
		Values(username, passwordHash, r.now().UTC())

	id, err := insert(ctx, r.db, ins)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrAlreadyExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindCredentials looks a user up by exact username.
func (r *UserRepository) FindCredentials(ctx context.Context, username string) (*Credentials, error) {
	b := r.db.Builder()
	query, args := b.Select(database.ColumnID, database.ColumnUsername, database.ColumnPasswordHash).
		From(b.Table(database.UsersTable)).
		Where(entsql.EQ(database.ColumnUsername, username)).
		Query()

	var c Credentials
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &c, nil
}
