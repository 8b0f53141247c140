package http

import (
	"time"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	"github.com/davicafu/taskdesk/pkg/utils"
)

const ResourceType = "documents"

// DocumentAttributes es la vista pública de un documento.
// La ruta interna del fichero no sale; en su lugar va la url de descarga.
type DocumentAttributes struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploadDate"`
}

// DownloadURL construye la url de descarga bajo el prefijo de la API.
func DownloadURL(prefix, id string) string {
	return prefix + "/documents/" + id + "/download"
}

func ToAttributes(d documentDomain.Document, prefix string) DocumentAttributes {
	return DocumentAttributes{
		ID:         d.ID.String(),
		TaskID:     d.TaskID.String(),
		Name:       d.Name,
		Size:       d.Size,
		URL:        DownloadURL(prefix, d.ID.String()),
		UploadDate: d.UploadDate,
	}
}

func ToAttributesList(docs []documentDomain.Document, prefix string) []DocumentAttributes {
	out := make([]DocumentAttributes, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToAttributes(d, prefix))
	}
	return out
}

func toResource(d documentDomain.Document, prefix string) utils.Resource {
	return utils.Resource{Type: ResourceType, ID: d.ID.String(), Attributes: ToAttributes(d, prefix)}
}
