package mocks

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

// InMemoryDocumentRepo simula DocumentRepository con su cola de ficheros a borrar.
type InMemoryDocumentRepo struct {
	Documents map[uuid.UUID]documentDomain.Document
	Cleanups  map[uuid.UUID]documentDomain.FileCleanup
	Outbox    []sharedDomain.OutboxEvent
	Calls     int
	FailWith  error
	mu        sync.Mutex
}

var _ documentDomain.DocumentRepository = (*InMemoryDocumentRepo)(nil)

func NewInMemoryDocumentRepo() *InMemoryDocumentRepo {
	return &InMemoryDocumentRepo{
		Documents: make(map[uuid.UUID]documentDomain.Document),
		Cleanups:  make(map[uuid.UUID]documentDomain.FileCleanup),
	}
}

func (r *InMemoryDocumentRepo) Create(ctx context.Context, d *documentDomain.Document, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Documents[d.ID] = *d
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryDocumentRepo) FindByID(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	d, ok := r.Documents[id]
	if !ok {
		return nil, notFoundDocument(id)
	}
	return &d, nil
}

func (r *InMemoryDocumentRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]documentDomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	list := []documentDomain.Document{}
	for _, d := range r.Documents {
		if d.TaskID == taskID {
			list = append(list, d)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UploadDate.After(list[j].UploadDate) })
	return list, nil
}

func (r *InMemoryDocumentRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) (*documentDomain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	d, ok := r.Documents[id]
	if !ok {
		return nil, notFoundDocument(id)
	}
	if ref, ok := evt.Payload.(documentDomain.DocumentRef); ok {
		ref.TaskID = d.TaskID
		evt.Payload = ref
	}
	delete(r.Documents, id)
	r.Cleanups[id] = documentDomain.FileCleanup{DocumentID: id, FilePath: d.FilePath, CreatedAt: evt.CreatedAt}
	r.Outbox = append(r.Outbox, evt)
	return &d, nil
}

func (r *InMemoryDocumentRepo) FetchPendingCleanups(ctx context.Context, limit int) ([]documentDomain.FileCleanup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]documentDomain.FileCleanup, 0, len(r.Cleanups))
	for _, c := range r.Cleanups {
		list = append(list, c)
		if len(list) == limit {
			break
		}
	}
	return list, nil
}

func (r *InMemoryDocumentRepo) MarkCleanupDone(ctx context.Context, documentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Cleanups, documentID)
	return nil
}

func notFoundDocument(id uuid.UUID) error {
	return sharedDomain.NewNotFoundError("Document not found", id.String(), documentDomain.ErrDocumentNotFound)
}

// InMemoryBlobStorage guarda el contenido de los ficheros en un mapa.
type InMemoryBlobStorage struct {
	Files      map[string][]byte
	RemoveErr  error
	SaveCalls int
	mu        sync.Mutex
}

var _ documentDomain.BlobStorage = (*InMemoryBlobStorage)(nil)

func NewInMemoryBlobStorage() *InMemoryBlobStorage {
	return &InMemoryBlobStorage{Files: make(map[string][]byte)}
}

func (s *InMemoryBlobStorage) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	ref := "/uploads/" + uuid.NewString() + "-" + strings.ToLower(originalName)
	s.Files[ref] = data
	return ref, nil
}

func (s *InMemoryBlobStorage) Remove(ctx context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	delete(s.Files, filePath)
	return nil
}

func (s *InMemoryBlobStorage) Resolve(filePath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Files[filePath]; !ok {
		return "", documentDomain.ErrFileMissing
	}
	return filePath, nil
}

// ErrBlobUnavailable sirve para simular fallos del almacenamiento.
var ErrBlobUnavailable = errors.New("blob storage unavailable")
