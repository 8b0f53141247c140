package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/taskdesk/internal/mocks"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

func ptr(s string) *string { return &s }

func futureDate() string {
	return time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
}

func newService(enforce bool) (*TaskService, *mocks.InMemoryTaskRepo, *mocks.DummyCache) {
	repo := mocks.NewInMemoryTaskRepo()
	cache := mocks.NewDummyCache()
	return NewTaskService(repo, cache, zap.NewNop(), enforce), repo, cache
}

func TestCreateTask_Success(t *testing.T) {
	// Arrange
	service, repo, _ := newService(true)

	// Act
	task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{
		Title:       "  Mi primera tarea  ",
		Description: "Hacer algo importante",
		DueDate:     futureDate(),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Mi primera tarea", task.Title)
	assert.Equal(t, taskDomain.TaskPending, task.Status)

	// Verificar que se creó un evento Outbox
	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, taskDomain.TaskCreated, repo.Outbox[0].EventType)
	assert.Equal(t, task.ID.String(), repo.Outbox[0].AggregateID)
}

func TestCreateTask_InvalidInput(t *testing.T) {
	// Arrange
	service, repo, _ := newService(true)

	// Act
	_, err := service.CreateTask(context.Background(), taskDomain.TaskInput{Title: "Sin fecha"})

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindValidation))
	assert.Empty(t, repo.Tasks)
	assert.Empty(t, repo.Outbox)
}

func TestGetTask_NotFound(t *testing.T) {
	// Arrange
	service, repo, _ := newService(true)

	// Act
	_, err := service.GetTask(context.Background(), uuid.New())

	// Assert
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
	assert.Equal(t, 1, repo.FindByIDCalls, "un not found no se reintenta")
}

func TestGetTask_CacheHit(t *testing.T) {
	// Arrange
	service, repo, cache := newService(true)
	taskID := uuid.New()
	_ = cache.Set(context.Background(), taskDomain.TaskCacheKeyByID(taskID),
		&taskDomain.Task{ID: taskID, Title: "Tarea en caché"}, 60)

	// Act
	fetched, err := service.GetTask(context.Background(), taskID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Tarea en caché", fetched.Title)
	assert.Zero(t, repo.FindByIDCalls)
}

func TestGetTask_CacheMissPopulatesCache(t *testing.T) {
	// Arrange
	service, _, cache := newService(true)
	task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{Title: "En repo", DueDate: futureDate()})
	require.NoError(t, err)

	// Act
	fetched, err := service.GetTask(context.Background(), task.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.ID, fetched.ID)
	assert.Eventually(t, func() bool {
		return cache.Has(taskDomain.TaskCacheKeyByID(task.ID))
	}, time.Second, 10*time.Millisecond)
}

// slowFirstRead retiene la primera lectura por id después de leer la fila.
type slowFirstRead struct {
	*mocks.InMemoryTaskRepo
	held    atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (r *slowFirstRead) FindByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	task, err := r.InMemoryTaskRepo.FindByID(ctx, id)
	if r.held.CompareAndSwap(false, true) {
		close(r.read)
		<-r.release
	}
	return task, err
}

func TestGetTask_ReadOverlappingUpdateDoesNotCacheOldState(t *testing.T) {
	// Arrange: una lectura lee la tarea pendiente y se queda parada antes de rellenar la caché
	inner := mocks.NewInMemoryTaskRepo()
	repo := &slowFirstRead{InMemoryTaskRepo: inner, read: make(chan struct{}), release: make(chan struct{})}
	cache := mocks.NewDummyCache()
	service := NewTaskService(repo, cache, zap.NewNop(), true)
	ctx := context.Background()

	task, err := taskDomain.NewTask(taskDomain.TaskInput{Title: "Carrera", DueDate: futureDate()}, time.Now())
	require.NoError(t, err)
	inner.Tasks[task.ID] = *task
	key := taskDomain.TaskCacheKeyByID(task.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = service.GetTask(ctx, task.ID)
	}()
	<-repo.read

	// Act: el PUT se confirma mientras la lectura sigue en curso
	_, err = service.UpdateTask(ctx, task.ID, taskDomain.TaskPatch{Status: ptr("completed")})
	require.NoError(t, err)
	close(repo.release)
	<-done

	// Assert: lo que quede en caché y lo que devuelva el siguiente GET es el estado confirmado
	require.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)
	var cached taskDomain.Task
	hit, err := cache.Get(ctx, key, &cached)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, taskDomain.TaskCompleted, cached.Status)

	fetched, err := service.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, taskDomain.TaskCompleted, fetched.Status)
}

func TestGetTask_RetriesStorageErrors(t *testing.T) {
	// Arrange
	service, repo, _ := newService(true)
	repo.FailWith = sharedDomain.NewStorageError("task.find_by_id", "x", errors.New("db down"))

	// Act
	_, err := service.GetTask(context.Background(), uuid.New())

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindStorage))
	assert.Equal(t, readAttempts, repo.FindByIDCalls)
}

func TestUpdateTask_CompletesAndInvalidatesCache(t *testing.T) {
	// Arrange
	service, repo, cache := newService(true)
	task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{Title: "Original", DueDate: futureDate()})
	require.NoError(t, err)
	key := taskDomain.TaskCacheKeyByID(task.ID)
	_ = cache.Set(context.Background(), key, task, 60)

	// Act
	updated, err := service.UpdateTask(context.Background(), task.ID, taskDomain.TaskPatch{
		Title:  ptr("Título actualizado"),
		Status: ptr("completed"),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Título actualizado", updated.Title)
	assert.Equal(t, taskDomain.TaskCompleted, updated.Status)
	assert.Equal(t, taskDomain.TaskCompleted, repo.Tasks[task.ID].Status)
	assert.False(t, cache.Has(key))

	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, taskDomain.TaskUpdated, repo.Outbox[1].EventType)
}

func TestUpdateTask_EmptyPatchOnlyMovesUpdatedAt(t *testing.T) {
	// Arrange
	service, _, _ := newService(true)
	task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{Title: "Quieta", DueDate: futureDate()})
	require.NoError(t, err)
	service.now = func() time.Time { return task.UpdatedAt.Add(time.Minute) }

	// Act
	updated, err := service.UpdateTask(context.Background(), task.ID, taskDomain.TaskPatch{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.Title, updated.Title)
	assert.Equal(t, task.Status, updated.Status)
	assert.True(t, updated.DueDate.Equal(task.DueDate))
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateTask_TransitionGuard(t *testing.T) {
	tests := []struct {
		name    string
		enforce bool
		wantErr bool
	}{
		{name: "con control de transiciones", enforce: true, wantErr: true},
		{name: "sin control de transiciones", enforce: false, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			service, _, _ := newService(tt.enforce)
			task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{
				Title: "Cerrada", Status: "completed", DueDate: futureDate(),
			})
			require.NoError(t, err)

			// Act
			_, err = service.UpdateTask(context.Background(), task.ID, taskDomain.TaskPatch{Status: ptr("pending")})

			// Assert
			if tt.wantErr {
				assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindConflict))
				assert.ErrorIs(t, err, taskDomain.ErrInvalidTransition)
				assert.Equal(t, "Cannot change task status from completed to pending", sharedDomain.PublicMessage(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	// Arrange
	service, repo, _ := newService(true)

	// Act
	_, err := service.UpdateTask(context.Background(), uuid.New(), taskDomain.TaskPatch{Title: ptr("x")})

	// Assert
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
	assert.Empty(t, repo.Outbox)
}

func TestDeleteTask_Success(t *testing.T) {
	// Arrange
	service, repo, cache := newService(true)
	task, err := service.CreateTask(context.Background(), taskDomain.TaskInput{Title: "A borrar", DueDate: futureDate()})
	require.NoError(t, err)

	// Act
	err = service.DeleteTask(context.Background(), task.ID)

	// Assert
	require.NoError(t, err)
	_, err = service.GetTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, taskDomain.ErrTaskNotFound)
	assert.Contains(t, cache.Deletes, taskDomain.TaskCacheKeyByID(task.ID))

	require.Len(t, repo.Outbox, 2)
	assert.Equal(t, taskDomain.TaskDeleted, repo.Outbox[1].EventType)
}

func TestDeleteTask_NotFound(t *testing.T) {
	// Arrange
	service, _, _ := newService(true)

	// Act
	err := service.DeleteTask(context.Background(), uuid.New())

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindNotFound))
}

func TestListTasks_Filtering(t *testing.T) {
	// Arrange
	service, _, _ := newService(true)
	ctx := context.Background()
	_, _ = service.CreateTask(ctx, taskDomain.TaskInput{Title: "Comprar pan", DueDate: futureDate()})
	_, _ = service.CreateTask(ctx, taskDomain.TaskInput{Title: "Pagar luz", Status: "completed", DueDate: futureDate()})
	_, _ = service.CreateTask(ctx, taskDomain.TaskInput{Title: "Comprar leche", Status: "completed", DueDate: futureDate()})

	// Act
	results, err := service.ListTasks(ctx, sharedDomain.And(
		taskDomain.StatusCriteria{Status: taskDomain.TaskCompleted},
		taskDomain.TitleLikeCriteria{Title: "COMPRAR"},
	))

	// Assert
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Comprar leche", results[0].Title)
}
