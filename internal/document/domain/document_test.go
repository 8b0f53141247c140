package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

func TestUploadPolicy_Validate(t *testing.T) {
	policy := NewUploadPolicy(0)

	tests := []struct {
		name    string
		upload  Upload
		wantErr string
	}{
		{"pdf válido", Upload{Name: "informe.pdf", Size: 1024, MimeType: "application/pdf"}, ""},
		{"texto con charset", Upload{Name: "notas.TXT", Size: 10, MimeType: "text/plain; charset=utf-8"}, ""},
		{"justo en el límite", Upload{Name: "a.png", Size: DefaultMaxUploadSize, MimeType: "image/png"}, ""},
		{"demasiado grande", Upload{Name: "a.png", Size: 11 * 1024 * 1024, MimeType: "image/png"}, "File size too large. Maximum size is 10MB"},
		{"tipo no permitido", Upload{Name: "a.exe", Size: 10, MimeType: "application/x-msdownload"}, "File type not allowed"},
		{"extensión no permitida", Upload{Name: "a.exe", Size: 10, MimeType: "text/plain"}, "File extension not allowed"},
		{"exe disfrazado de imagen", Upload{Name: "foto.exe", Size: 10, MimeType: "image/png"}, "File extension not allowed"},
		{"txt declarado como imagen", Upload{Name: "notas.txt", Size: 10, MimeType: "image/png"}, ""},
		{"sin nombre", Upload{Name: " ", Size: 10, MimeType: "text/plain"}, "File is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.upload)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, sharedDomain.IsKind(err, sharedDomain.KindValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUploadPolicy_CustomLimitMessage(t *testing.T) {
	policy := NewUploadPolicy(2 * 1024 * 1024)

	err := policy.Validate(Upload{Name: "a.pdf", Size: 3 * 1024 * 1024, MimeType: "application/pdf"})

	assert.EqualError(t, err, "File size too large. Maximum size is 2MB")
}

func TestNewDocument(t *testing.T) {
	taskID := uuid.New()
	now := time.Now()

	doc, err := NewDocument(taskID, Upload{Name: "  plan.pdf ", Size: 42}, "/uploads/1-plan.pdf", now)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, "plan.pdf", doc.Name)
	assert.Equal(t, taskID, doc.TaskID)
	assert.Equal(t, int64(42), doc.Size)
	assert.WithinDuration(t, now, doc.UploadDate, time.Millisecond)
}

func TestNewDocument_NameTooLong(t *testing.T) {
	_, err := NewDocument(uuid.New(), Upload{Name: strings.Repeat("a", 256) + ".pdf"}, "/uploads/x", time.Now())

	assert.EqualError(t, err, "Document name is too long (max 255 characters)")
}

func TestStoredName(t *testing.T) {
	assert.Equal(t, "123-a.pdf", StoredName("/uploads/123-a.pdf"))
	assert.Equal(t, "passwd", StoredName("/uploads/../../etc/passwd"))
	assert.Equal(t, "evil.txt", StoredName(`..\..\evil.txt`))
	assert.Equal(t, "", StoredName("/uploads/.."))
	assert.Equal(t, "", StoredName(""))
}
