package domain

import "strings"

// ---------------- Operadores ----------------

type Operator string

const (
	OpEq   Operator = "="
	OpGt   Operator = ">"
	OpGte  Operator = ">="
	OpLt   Operator = "<"
	OpLte  Operator = "<="
	OpLike Operator = "LIKE"
)

type LogicalOperator string

const (
	OpAnd LogicalOperator = "AND"
	OpOr  LogicalOperator = "OR"
)

// LikeEscape es el carácter de escape que acompaña a OpLike.
const LikeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// EscapeLike neutraliza los comodines de un texto de usuario para usarlo dentro de un patrón LIKE.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ---------------- Criterion ----------------

// Criterion describe una condición neutral de filtrado.
// Field es un nombre lógico; cada repositorio lo traduce a su columna.
type Criterion struct {
	Field string
	Op    Operator
	Value interface{}
}

// Criteria permite transformar filtros a condiciones neutrales
type Criteria interface {
	ToConditions() []Criterion
}

// ---------------- Composite Criteria ----------------

type CompositeCriteria struct {
	Operator  LogicalOperator
	Criterias []Criteria
}

func (c CompositeCriteria) ToConditions() []Criterion {
	var all []Criterion
	for _, crit := range c.Criterias {
		if crit == nil {
			continue
		}
		all = append(all, crit.ToConditions()...)
	}
	return all
}

// And crea un CompositeCriteria con operador AND
func And(criterias ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OpAnd, Criterias: criterias}
}
