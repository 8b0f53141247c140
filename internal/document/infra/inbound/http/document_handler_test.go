package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/taskdesk/internal/document/application"
	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	documentStore "github.com/davicafu/taskdesk/internal/document/infra/outbound/db/sqlstore"
	"github.com/davicafu/taskdesk/internal/document/infra/outbound/filesystem"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/platform/db/dbtest"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
	taskStore "github.com/davicafu/taskdesk/internal/task/infra/outbound/db/sqlstore"
	"github.com/davicafu/taskdesk/pkg/utils"
)

type fixture struct {
	router *gin.Engine
	db     *sqlx.DB
	taskID uuid.UUID
}

func setup(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := dbtest.OpenTestDB(t)
	tasks := taskStore.NewTaskRepo(conn)
	task, err := taskDomain.NewTask(taskDomain.TaskInput{
		Title:   "Con adjuntos",
		DueDate: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task,
		sharedDomain.NewOutboxEvent(taskDomain.TaskTopic, task.ID.String(), taskDomain.TaskCreated, taskDomain.SnapshotOf(task), time.Now())))

	blobs, err := filesystem.NewBlobStorage(t.TempDir())
	require.NoError(t, err)

	policy := documentDomain.NewUploadPolicy(documentDomain.DefaultMaxUploadSize)
	service := application.NewDocumentService(documentStore.NewDocumentRepo(conn), blobs, tasks, policy, nil, zap.NewNop())

	r := gin.New()
	RegisterDocumentRoutes(r.Group("/api"), NewDocumentHandler(service, policy, "/api"))
	return fixture{router: r, db: conn, taskID: task.ID}
}

func multipartBody(t *testing.T, field, name, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (f fixture) upload(t *testing.T, taskID uuid.UUID, name, contentType string, content []byte) *httptest.ResponseRecorder {
	body, ct := multipartBody(t, "document", name, contentType, content)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+taskID.String()+"/documents", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f fixture) do(method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func (f fixture) documentCount(t *testing.T) int {
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM documents`))
	return n
}

type documentBody struct {
	Data struct {
		Type       string             `json:"type"`
		ID         string             `json:"id"`
		Attributes DocumentAttributes `json:"attributes"`
	} `json:"data"`
}

func TestDocumentLifecycle(t *testing.T) {
	// Arrange
	f := setup(t)
	content := []byte("hola mundo")

	// Act: subir
	w := f.upload(t, f.taskID, "notas.txt", "text/plain", content)

	// Assert
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created documentBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "documents", created.Data.Type)
	assert.Equal(t, "notas.txt", created.Data.Attributes.Name)
	assert.Equal(t, int64(len(content)), created.Data.Attributes.Size)
	assert.Equal(t, "/api/documents/"+created.Data.ID+"/download", created.Data.Attributes.URL)
	assert.NotContains(t, w.Body.String(), "filePath")

	// Act: listar y descargar
	list := f.do(http.MethodGet, "/api/tasks/"+f.taskID.String()+"/documents")
	download := f.do(http.MethodGet, created.Data.Attributes.URL)

	// Assert
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), created.Data.ID)
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, content, download.Body.Bytes())
	assert.Contains(t, download.Header().Get("Content-Disposition"), "notas.txt")

	// Act: borrar
	del := f.do(http.MethodDelete, "/api/documents/"+created.Data.ID)
	again := f.do(http.MethodDelete, "/api/documents/"+created.Data.ID)
	gone := f.do(http.MethodGet, created.Data.Attributes.URL)

	// Assert
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, http.StatusNotFound, gone.Code)
	assert.Zero(t, f.documentCount(t))
}

func TestUploadDocument_TooLargeLeavesNoRow(t *testing.T) {
	// Arrange
	f := setup(t)
	big := bytes.Repeat([]byte("a"), 11*1024*1024)

	// Act
	w := f.upload(t, f.taskID, "grande.txt", "text/plain", big)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, utils.ContentType, w.Header().Get("Content-Type"))
	assert.Zero(t, f.documentCount(t))
}

func TestUploadDocument_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		wantDetail  string
	}{
		{name: "tipo MIME", file: "x.txt", contentType: "application/x-msdownload",
			wantDetail: "File type not allowed. Allowed types: .jpg, .jpeg, .png, .gif, .pdf, .doc, .docx, .txt"},
		{name: "extensión", file: "x.exe", contentType: "text/plain",
			wantDetail: "File extension not allowed. Allowed extensions: .jpg, .jpeg, .png, .gif, .pdf, .doc, .docx, .txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := setup(t)

			// Act
			w := f.upload(t, f.taskID, tt.file, tt.contentType, []byte("x"))

			// Assert
			require.Equal(t, http.StatusBadRequest, w.Code)
			var body struct {
				Errors []utils.ErrorObject `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantDetail, body.Errors[0].Detail)
			assert.Zero(t, f.documentCount(t))
		})
	}
}

func TestUploadDocument_NoFileAndMissingTask(t *testing.T) {
	// Arrange
	f := setup(t)
	body, ct := multipartBody(t, "otro", "x.txt", "text/plain", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+f.taskID.String()+"/documents", body)
	req.Header.Set("Content-Type", ct)
	noFile := httptest.NewRecorder()

	// Act
	f.router.ServeHTTP(noFile, req)
	missingTask := f.upload(t, uuid.New(), "x.txt", "text/plain", []byte("x"))

	// Assert
	assert.Equal(t, http.StatusBadRequest, noFile.Code)
	assert.Contains(t, noFile.Body.String(), "No file uploaded")
	assert.Equal(t, http.StatusNotFound, missingTask.Code)
	assert.Zero(t, f.documentCount(t))
}

func TestDocumentRoutes_InvalidID(t *testing.T) {
	// Arrange
	f := setup(t)

	// Act
	w := f.do(http.MethodDelete, "/api/documents/not-a-uuid")

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
