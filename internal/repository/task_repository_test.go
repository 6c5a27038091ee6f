package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/dailytasks/internal/database"
	"github.com/gurkanbulca/dailytasks/internal/database/dbtest"
	"github.com/gurkanbulca/dailytasks/internal/models"
)

var (
	march1 = models.NewDate(2024, time.March, 1)
	march2 = models.NewDate(2024, time.March, 2)
)

type fixture struct {
	db    *database.DB
	tasks *TaskRepository
	users *UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	return &fixture{
		db:    db,
		tasks: NewTaskRepository(db),
		users: NewUserRepository(db),
	}
}

func (f *fixture) user(t *testing.T, username string) int64 {
	t.Helper()
	id, err := f.users.Create(context.Background(), username, "hash")
	require.NoError(t, err)
	return id
}

func (f *fixture) task(t *testing.T, userID int64, title string, due models.Date) *models.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), &TaskInput{
		UserID:  userID,
		Title:   title,
		DueDate: due,
	})
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T { return &v }

func TestTaskRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fixed := time.Date(2024, time.February, 20, 9, 30, 0, 123456000, time.UTC)
	f.tasks.now = func() time.Time { return fixed }

	alice := f.user(t, "alice")
	created, err := f.tasks.Create(ctx, &TaskInput{
		UserID:      alice,
		Title:       "Pay rent",
		Description: "Transfer before noon",
		DueDate:     march1,
	})
	require.NoError(t, err)

	assert.Positive(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, fixed, created.CreationDate)

	got, err := f.tasks.GetByID(ctx, created.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, alice, got.UserID)
	assert.Equal(t, "Pay rent", got.Title)
	assert.Equal(t, "Transfer before noon", got.Description)
	assert.Equal(t, "2024-03-01", got.DueDate.String())
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, fixed.Equal(got.CreationDate))
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	later := f.task(t, alice, "later", march2)
	first := f.task(t, alice, "first", march1)
	second := f.task(t, alice, "second", march1)
	f.task(t, bob, "not yours", march1)

	t.Run("all of the owner's tasks by due date then id", func(t *testing.T) {
		tasks, err := f.tasks.List(ctx, ListFilter{UserID: alice})
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []int64{first.ID, second.ID, later.ID}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	})

	t.Run("filtered by due date", func(t *testing.T) {
		tasks, err := f.tasks.List(ctx, ListFilter{UserID: alice, DueDate: &march1})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		for _, task := range tasks {
			assert.Equal(t, alice, task.UserID)
			assert.True(t, task.DueDate.Equal(march1))
		}
	})

	t.Run("no tasks yields an empty slice", func(t *testing.T) {
		tasks, err := f.tasks.List(ctx, ListFilter{UserID: 999})
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})
}

func TestTaskRepository_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	task, err := f.tasks.Create(ctx, &TaskInput{UserID: alice, Title: "Pay rent", Description: "bank", DueDate: march1})
	require.NoError(t, err)

	t.Run("status only leaves other fields", func(t *testing.T) {
		updated, err := f.tasks.Update(ctx, task.ID, alice, &TaskUpdateInput{Status: ptr(models.StatusCompleted)})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, updated.Status)
		assert.Equal(t, "Pay rent", updated.Title)
		assert.Equal(t, "bank", updated.Description)
		assert.Equal(t, "2024-03-01", updated.DueDate.String())
		assert.True(t, task.CreationDate.Equal(updated.CreationDate))
	})

	t.Run("several fields at once", func(t *testing.T) {
		updated, err := f.tasks.Update(ctx, task.ID, alice, &TaskUpdateInput{
			Title:       ptr("Pay rent and bills"),
			Description: ptr(""),
			DueDate:     &march2,
		})
		require.NoError(t, err)
		assert.Equal(t, "Pay rent and bills", updated.Title)
		assert.Equal(t, "", updated.Description)
		assert.Equal(t, "2024-03-02", updated.DueDate.String())
		assert.Equal(t, models.StatusCompleted, updated.Status)

		got, err := f.tasks.GetByID(ctx, task.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("empty patch returns the current task", func(t *testing.T) {
		got, err := f.tasks.Update(ctx, task.ID, alice, &TaskUpdateInput{})
		require.NoError(t, err)
		assert.Equal(t, "Pay rent and bills", got.Title)
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := f.tasks.Update(ctx, task.ID+100, alice, &TaskUpdateInput{Title: ptr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTaskRepository_ForeignOwnerCannotReachTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	mallory := f.user(t, "mallory")
	task := f.task(t, alice, "Pay rent", march1)

	_, err := f.tasks.GetByID(ctx, task.ID, mallory)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.tasks.Update(ctx, task.ID, mallory, &TaskUpdateInput{Title: ptr("hijacked")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.tasks.Update(ctx, task.ID, mallory, &TaskUpdateInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.tasks.Delete(ctx, task.ID, mallory), ErrNotFound)

	got, err := f.tasks.GetByID(ctx, task.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", got.Title)
}

func TestTaskRepository_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	task := f.task(t, alice, "Pay rent", march1)

	require.NoError(t, f.tasks.Delete(ctx, task.ID, alice))
	assert.ErrorIs(t, f.tasks.Delete(ctx, task.ID, alice), ErrNotFound)

	_, err := f.tasks.GetByID(ctx, task.ID, alice)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskUpdateInput_IsEmpty(t *testing.T) {
	var nilInput *TaskUpdateInput
	assert.True(t, nilInput.IsEmpty())
	assert.True(t, (&TaskUpdateInput{}).IsEmpty())
	assert.False(t, (&TaskUpdateInput{Description: ptr("")}).IsEmpty())
}
