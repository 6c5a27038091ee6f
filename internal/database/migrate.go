package database

import (
	"context"
	"fmt"
	"log"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared with the repositories.
const (
	UsersTable = "users"
	TasksTable = "tasks"

	ColumnID           = "id"
	ColumnUsername     = "username"
	ColumnPasswordHash = "password_hash"
	ColumnCreatedAt    = "created_at"

	ColumnUserID       = "user_id"
	ColumnTitle        = "title"
	ColumnDescription  = "description"
	ColumnCreationDate = "creation_date"
	ColumnDueDate      = "due_date"
	ColumnStatus       = "status"
)

var (
	usersColumns = []*schema.Column{
		{Name: ColumnID, Type: field.TypeInt, Increment: true},
		{Name: ColumnUsername, Type: field.TypeString, Unique: true, Size: 50},
		{Name: ColumnPasswordHash, Type: field.TypeString},
		{Name: ColumnCreatedAt, Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       UsersTable,
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	tasksColumns = []*schema.Column{
		{Name: ColumnID, Type: field.TypeInt, Increment: true},
		{Name: ColumnTitle, Type: field.TypeString, Size: 200},
		{Name: ColumnDescription, Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: ColumnCreationDate, Type: field.TypeTime},
		{Name: ColumnDueDate, Type: field.TypeTime, SchemaType: map[string]string{
			dialect.Postgres: "date",
			dialect.SQLite:   "date",
		}},
		{Name: ColumnStatus, Type: field.TypeEnum, Enums: []string{"pending", "in-progress", "completed"}, Default: "pending"},
		{Name: ColumnUserID, Type: field.TypeInt},
	}
	tasksTable = &schema.Table{
		Name:       TasksTable,
		Columns:    tasksColumns,
		PrimaryKey: []*schema.Column{tasksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "tasks_users_tasks",
				Columns:    []*schema.Column{tasksColumns[6]},
				RefColumns: []*schema.Column{usersColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "task_user_id_due_date",
				Unique:  false,
				Columns: []*schema.Column{tasksColumns[6], tasksColumns[4]},
			},
		},
	}

	tables = []*schema.Table{usersTable, tasksTable}
)

func init() {
	tasksTable.ForeignKeys[0].RefTable = usersTable
}

// Migrate creates or updates the users and tasks tables.
func (db *DB) Migrate(ctx context.Context) error {
	log.Println("Running schema migration...")

	drv := entsql.OpenDB(db.dialect, db.DB.DB)
	m, err := schema.NewMigrate(drv,
		schema.WithDropIndex(true),
		schema.WithDropColumn(true),
		schema.WithForeignKeys(true),
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}

	log.Println("Schema migration completed")
	return nil
}
