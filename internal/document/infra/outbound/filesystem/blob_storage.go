package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
)

// PublicPrefix es el prefijo de las referencias que se guardan en documents.file_path.
const PublicPrefix = "/uploads/"

// BlobStorage guarda los ficheros subidos en un directorio local.
// Cada fichero recibe un nombre único, así que no hace falta serializar escrituras.
type BlobStorage struct {
	dir string
	now func() time.Time
}

var _ documentDomain.BlobStorage = (*BlobStorage)(nil)

// NewBlobStorage crea el directorio si no existe.
func NewBlobStorage(dir string) (*BlobStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir: %w", err)
	}
	return &BlobStorage{dir: dir, now: time.Now}, nil
}

// Save escribe el contenido con un nombre "<unixms>-<uuid><ext>" y devuelve "/uploads/<nombre>".
// Si la copia falla, el fichero parcial se borra.
func (s *BlobStorage) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), safeExt(originalName))
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: content}); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return PublicPrefix + name, nil
}

// Remove borra el fichero. Si ya no existe se considera borrado.
func (s *BlobStorage) Remove(ctx context.Context, filePath string) error {
	name := documentDomain.StoredName(filePath)
	if name == "" {
		return fmt.Errorf("invalid stored file reference %q", filePath)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Resolve traduce la referencia guardada a una ruta dentro del directorio de subidas.
// Solo se usa el nombre base, así que una referencia manipulada no puede salir del directorio.
func (s *BlobStorage) Resolve(filePath string) (string, error) {
	name := documentDomain.StoredName(filePath)
	if name == "" {
		return "", documentDomain.ErrFileMissing
	}
	full := filepath.Join(s.dir, name)

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", documentDomain.ErrFileMissing
		}
		return "", err
	}
	if info.IsDir() {
		return "", documentDomain.ErrFileMissing
	}
	return full, nil
}

func safeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	for _, r := range ext[min(1, len(ext)):] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// ctxReader corta la copia si la petición se cancela.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
