package http

import (
	"time"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	documentHttp "github.com/davicafu/taskdesk/internal/document/infra/inbound/http"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
	"github.com/davicafu/taskdesk/pkg/utils"
)

const ResourceType = "tasks"

// TaskAttributes es la tarea tal como sale por la API, con sus relaciones y overdue calculado.
type TaskAttributes struct {
	ID          string                            `json:"id"`
	Title       string                            `json:"title"`
	Description string                            `json:"description"`
	Responsible string                            `json:"responsible"`
	Status      taskDomain.TaskStatus             `json:"status"`
	DueDate     time.Time                         `json:"dueDate"`
	CreatedAt   time.Time                         `json:"createdAt"`
	UpdatedAt   time.Time                         `json:"updatedAt"`
	Overdue     bool                              `json:"overdue"`
	Documents   []documentHttp.DocumentAttributes `json:"documents"`
	Comments    []commentDomain.Comment           `json:"comments"`
}

func toResource(t taskDomain.Task, now time.Time, prefix string) utils.Resource {
	comments := t.Comments
	if comments == nil {
		comments = []commentDomain.Comment{}
	}
	return utils.Resource{
		Type: ResourceType,
		ID:   t.ID.String(),
		Attributes: TaskAttributes{
			ID:          t.ID.String(),
			Title:       t.Title,
			Description: t.Description,
			Responsible: t.Responsible,
			Status:      t.Status,
			DueDate:     t.DueDate,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
			Overdue:     taskDomain.IsOverdue(&t, now),
			Documents:   documentHttp.ToAttributesList(t.Documents, prefix),
			Comments:    comments,
		},
	}
}

// createAttributes es data.attributes de POST /tasks.
type createAttributes struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Responsible string `json:"responsible"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

// updateAttributes es data.attributes de PUT /tasks/:id; lo que no llega no se toca.
type updateAttributes struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Responsible *string `json:"responsible"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
}

func (a updateAttributes) toPatch() taskDomain.TaskPatch {
	return taskDomain.TaskPatch{
		Title:       a.Title,
		Description: a.Description,
		Responsible: a.Responsible,
		Status:      a.Status,
		DueDate:     a.DueDate,
	}
}
