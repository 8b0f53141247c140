package application

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	"github.com/davicafu/taskdesk/internal/mocks"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

type fixture struct {
	service *DocumentService
	docs    *mocks.InMemoryDocumentRepo
	blobs   *mocks.InMemoryBlobStorage
	cache   *mocks.DummyCache
	task    taskDomain.Task
}

func setup(t *testing.T) fixture {
	t.Helper()
	tasks := mocks.NewInMemoryTaskRepo()
	task, err := taskDomain.NewTask(taskDomain.TaskInput{
		Title:   "Con adjuntos",
		DueDate: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}, time.Now())
	require.NoError(t, err)
	tasks.Tasks[task.ID] = *task

	docs := mocks.NewInMemoryDocumentRepo()
	blobs := mocks.NewInMemoryBlobStorage()
	cache := mocks.NewDummyCache()
	service := NewDocumentService(docs, blobs, tasks, documentDomain.NewUploadPolicy(0), cache, zap.NewNop())
	return fixture{service: service, docs: docs, blobs: blobs, cache: cache, task: *task}
}

func pdf(size int64) documentDomain.Upload {
	return documentDomain.Upload{Name: "informe.pdf", Size: size, MimeType: "application/pdf"}
}

func TestUploadDocument_Success(t *testing.T) {
	// Arrange
	f := setup(t)
	content := []byte("%PDF-1.4")

	// Act
	doc, err := f.service.UploadDocument(context.Background(), f.task.ID, pdf(int64(len(content))), bytes.NewReader(content))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "informe.pdf", doc.Name)
	assert.Equal(t, f.task.ID, doc.TaskID)
	assert.Equal(t, content, f.blobs.Files[doc.FilePath])
	assert.Contains(t, f.docs.Documents, doc.ID)
	assert.Equal(t, documentDomain.DocumentUploaded, f.docs.Outbox[0].EventType)
	assert.Contains(t, f.cache.Deletes, taskDomain.TaskCacheKeyByID(f.task.ID))
}

func TestUploadDocument_RejectedBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name   string
		upload documentDomain.Upload
		msg    string
	}{
		{
			name:   "fichero de 11 MiB",
			upload: pdf(11 * 1024 * 1024),
			msg:    "File size too large. Maximum size is 10MB",
		},
		{
			name:   "tipo MIME no permitido",
			upload: documentDomain.Upload{Name: "script.pdf", Size: 10, MimeType: "application/x-sh"},
		},
		{
			name:   "extensión no permitida",
			upload: documentDomain.Upload{Name: "script.sh", Size: 10, MimeType: "text/plain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := setup(t)

			// Act
			_, err := f.service.UploadDocument(context.Background(), f.task.ID, tt.upload, bytes.NewReader([]byte("x")))

			// Assert
			assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindValidation))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, sharedDomain.PublicMessage(err))
			}
			assert.Zero(t, f.blobs.SaveCalls)
			assert.Zero(t, f.docs.Calls)
		})
	}
}

func TestUploadDocument_MissingTask(t *testing.T) {
	// Arrange
	f := setup(t)

	// Act
	_, err := f.service.UploadDocument(context.Background(), uuid.New(), pdf(3), bytes.NewReader([]byte("abc")))

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindNotFound))
	assert.Zero(t, f.blobs.SaveCalls)
	assert.Zero(t, f.docs.Calls)
}

func TestUploadDocument_RemovesFileWhenRowFails(t *testing.T) {
	// Arrange
	f := setup(t)
	f.docs.FailWith = sharedDomain.NewStorageError("document.create", "", mocks.ErrBlobUnavailable)

	// Act
	_, err := f.service.UploadDocument(context.Background(), f.task.ID, pdf(3), bytes.NewReader([]byte("abc")))

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindStorage))
	assert.Equal(t, 1, f.blobs.SaveCalls)
	assert.Empty(t, f.blobs.Files)
}

func TestDeleteDocument_RemovesRowAndFile(t *testing.T) {
	// Arrange
	f := setup(t)
	ctx := context.Background()
	doc, err := f.service.UploadDocument(ctx, f.task.ID, pdf(3), bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	// Act
	err = f.service.DeleteDocument(ctx, doc.ID)

	// Assert
	require.NoError(t, err)
	assert.NotContains(t, f.docs.Documents, doc.ID)
	assert.Empty(t, f.blobs.Files)
	assert.Empty(t, f.docs.Cleanups)

	last := f.docs.Outbox[len(f.docs.Outbox)-1]
	assert.Equal(t, documentDomain.DocumentDeleted, last.EventType)
	assert.Equal(t, documentDomain.DocumentRef{ID: doc.ID, TaskID: f.task.ID}, last.Payload)
}

func TestDeleteDocument_FileFailureLeavesCleanupQueued(t *testing.T) {
	// Arrange
	f := setup(t)
	ctx := context.Background()
	doc, err := f.service.UploadDocument(ctx, f.task.ID, pdf(3), bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	f.blobs.RemoveErr = mocks.ErrBlobUnavailable

	// Act
	err = f.service.DeleteDocument(ctx, doc.ID)

	// Assert
	require.NoError(t, err)
	assert.NotContains(t, f.docs.Documents, doc.ID)
	assert.Contains(t, f.docs.Cleanups, doc.ID)

	// el sweeper lo termina cuando el almacenamiento vuelve
	f.blobs.RemoveErr = nil
	sweeper := NewFileSweeper(f.docs, f.blobs, time.Minute, 10, zap.NewNop())
	assert.Equal(t, 1, sweeper.Sweep(ctx))
	assert.Empty(t, f.docs.Cleanups)
	assert.Empty(t, f.blobs.Files)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	// Arrange
	f := setup(t)

	// Act
	err := f.service.DeleteDocument(context.Background(), uuid.New())

	// Assert
	assert.ErrorIs(t, err, documentDomain.ErrDocumentNotFound)
}

func TestGetDocumentPath(t *testing.T) {
	// Arrange
	f := setup(t)
	ctx := context.Background()
	doc, err := f.service.UploadDocument(ctx, f.task.ID, pdf(3), bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	// Act
	path, found, err := f.service.GetDocumentPath(ctx, doc.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, path)
	assert.Equal(t, doc.ID, found.ID)
}

func TestGetDocumentPath_MissingFileIsStorageError(t *testing.T) {
	// Arrange
	f := setup(t)
	ctx := context.Background()
	doc, err := f.service.UploadDocument(ctx, f.task.ID, pdf(3), bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	delete(f.blobs.Files, doc.FilePath)

	// Act
	_, _, err = f.service.GetDocumentPath(ctx, doc.ID)
	_, _, missingErr := f.service.GetDocumentPath(ctx, uuid.New())

	// Assert
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindStorage))
	assert.ErrorIs(t, err, documentDomain.ErrFileMissing)
	assert.True(t, sharedDomain.IsKind(missingErr, sharedDomain.KindNotFound))
}
