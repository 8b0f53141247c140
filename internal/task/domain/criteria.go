package domain

import (
	"strings"

	shared "github.com/davicafu/taskdesk/internal/shared/domain"
)

// StatusCriteria filtra por estado.
type StatusCriteria struct {
	Status TaskStatus
}

func (c StatusCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "status", Op: shared.OpEq, Value: string(c.Status)},
	}
}

// TitleLikeCriteria busca un texto dentro del título, sin distinguir mayúsculas.
// % y _ se buscan literalmente.
type TitleLikeCriteria struct {
	Title string
}

func (c TitleLikeCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "title", Op: shared.OpLike, Value: "%" + shared.EscapeLike(strings.ToLower(c.Title)) + "%"},
	}
}

// ResponsibleCriteria filtra por responsable exacto.
type ResponsibleCriteria struct {
	Responsible string
}

func (c ResponsibleCriteria) ToConditions() []shared.Criterion {
	return []shared.Criterion{
		{Field: "responsible", Op: shared.OpEq, Value: c.Responsible},
	}
}
