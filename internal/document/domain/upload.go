package domain

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

// DefaultMaxUploadSize es 10 MiB.
const DefaultMaxUploadSize int64 = 10 * 1024 * 1024

var allowedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
}

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".pdf", ".doc", ".docx", ".txt"}

// Upload describe el fichero tal y como llega en la petición, antes de guardarlo.
type Upload struct {
	Name     string
	Size     int64
	MimeType string
}

// UploadPolicy decide qué ficheros se aceptan.
type UploadPolicy struct {
	MaxSize int64
}

func NewUploadPolicy(maxSize int64) UploadPolicy {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return UploadPolicy{MaxSize: maxSize}
}

// Validate comprueba tamaño, tipo MIME y extensión. Tipo y extensión se comprueban por separado:
// un .exe declarado como image/png pasa el primer filtro pero no el segundo.
func (p UploadPolicy) Validate(u Upload) error {
	if strings.TrimSpace(u.Name) == "" {
		return sharedDomain.NewValidationError("File is required")
	}

	if u.Size > p.MaxSize {
		return p.TooLarge()
	}

	if !isAllowedMimeType(u.MimeType) {
		return sharedDomain.NewValidationError(
			"File type not allowed. Allowed types: " + strings.Join(allowedExtensions, ", "))
	}

	ext := strings.ToLower(filepath.Ext(u.Name))
	if !contains(allowedExtensions, ext) {
		return sharedDomain.NewValidationError(
			"File extension not allowed. Allowed extensions: " + strings.Join(allowedExtensions, ", "))
	}
	return nil
}

// TooLarge es el error de tamaño, también para cuerpos cortados antes de leer el fichero entero.
func (p UploadPolicy) TooLarge() error {
	return sharedDomain.NewValidationError(
		fmt.Sprintf("File size too large. Maximum size is %sMB", formatMB(p.MaxSize)))
}

func isAllowedMimeType(raw string) bool {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return false
	}
	return contains(allowedMimeTypes, mediaType)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func formatMB(size int64) string {
	mb := float64(size) / (1024 * 1024)
	if mb == float64(int64(mb)) {
		return fmt.Sprintf("%d", int64(mb))
	}
	return fmt.Sprintf("%.1f", mb)
}
