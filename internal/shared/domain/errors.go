package domain

import (
	"errors"
	"fmt"
)

// ErrorKind clasifica un error para que la capa HTTP decida el código de estado
// sin inspeccionar el texto del mensaje.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindStorage    ErrorKind = "storage"
)

// Error es el error etiquetado que atraviesa servicio y repositorio.
type Error struct {
	Kind ErrorKind
	Op   string // operación que falló, ej. "task.find_by_id"
	ID   string // identificador implicado, puede ir vacío
	Msg  string // mensaje apto para el cliente
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "" && e.ID != "":
		return fmt.Sprintf("%s (%s): %v", e.Op, e.ID, e.Err)
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError crea un error de validación con el mensaje tal cual se devuelve al cliente.
func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// NewNotFoundError envuelve el sentinel del dominio (ej. ErrTaskNotFound).
func NewNotFoundError(msg, id string, sentinel error) *Error {
	return &Error{Kind: KindNotFound, Op: "find", ID: id, Msg: msg, Err: sentinel}
}

func NewConflictError(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

// NewStorageError envuelve cualquier fallo del almacén con la operación y el id.
func NewStorageError(op, id string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, ID: id, Err: err}
}

// KindOf devuelve la clase del error. Lo que no está clasificado se trata como storage.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind comprueba la clase sin obligar al llamador a hacer errors.As.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage es el detalle que se puede enseñar al cliente.
// Los errores de almacenamiento nunca filtran su causa.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStorage && e.Msg != "" {
		return e.Msg
	}
	return "Something went wrong"
}
