package domain

import (
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

const MaxNameLength = 255

// Document son los metadatos de un fichero adjunto a una tarea. No se modifica tras la subida.
type Document struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"taskId"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	FilePath   string    `json:"filePath"`
	UploadDate time.Time `json:"uploadDate"`
}

// NewDocument construye el registro de un fichero ya guardado en filePath.
func NewDocument(taskID uuid.UUID, upload Upload, filePath string, now time.Time) (*Document, error) {
	d := &Document{
		ID:         uuid.New(),
		TaskID:     taskID,
		Name:       strings.TrimSpace(upload.Name),
		Size:       upload.Size,
		FilePath:   filePath,
		UploadDate: now.UTC().Truncate(time.Millisecond),
	}
	if err := ValidateDocument(d); err != nil {
		return nil, err
	}
	return d, nil
}

func ValidateDocument(d *Document) error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return sharedDomain.NewValidationError("Document name is required")
	case utf8.RuneCountInString(d.Name) > MaxNameLength:
		return sharedDomain.NewValidationError("Document name is too long (max 255 characters)")
	case strings.TrimSpace(d.FilePath) == "":
		return sharedDomain.NewValidationError("File path is required")
	case d.TaskID == uuid.Nil:
		return sharedDomain.NewValidationError("Task ID is required for document")
	case d.UploadDate.IsZero():
		return sharedDomain.NewValidationError("Invalid upload date format")
	}
	return nil
}

// StoredName devuelve solo el nombre base de la referencia guardada.
// Cualquier componente de directorio, incluido "..", se descarta.
func StoredName(filePath string) string {
	name := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
