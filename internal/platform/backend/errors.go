package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"EPESPO-inventario/internal/platform/apierr"
)

// RemoteError is a non-2xx answer from the backend.
type RemoteError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend %d", e.Status)
}

// FieldError returns the first message for field, or "".
func (e *RemoteError) FieldError(field string) string {
	if msgs := e.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// priorityFields are checked in order when picking the message to show.
var priorityFields = []string{
	"productos",
	"responsable_id",
	"area_id",
	"fecha_asignacion",
	"fecha_devolucion",
	"categoria",
}

// Message turns any error from this package into the operator-facing text.
// Field errors win over the server message, which wins over the generic
// per-status text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if !errors.As(err, &re) {
		return "Ocurrió un error inesperado."
	}
	for _, f := range priorityFields {
		if msg := re.FieldError(f); msg != "" {
			return msg
		}
	}
	if re.Message != "" {
		return re.Message
	}
	switch {
	case re.Status == http.StatusUnauthorized:
		return "No autorizado. Inicia sesión nuevamente."
	case re.Status == http.StatusForbidden:
		return "No tienes permisos para esta acción."
	case re.Status == http.StatusNotFound:
		return "No encontrado."
	case re.Status >= 500:
		return "Error del servidor. Intenta nuevamente."
	default:
		return "Ocurrió un error inesperado."
	}
}

// AsAPIError maps a backend failure onto the gateway's own error codes,
// keeping the operator-facing message.
func AsAPIError(err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if !errors.As(err, &re) {
		return apierr.Unavailable(Message(err))
	}
	msg := Message(err)
	switch {
	case re.Status == http.StatusUnauthorized || re.Status == 419:
		return apierr.Unauthorized(msg)
	case re.Status == http.StatusForbidden:
		return apierr.Forbidden(msg)
	case re.Status == http.StatusNotFound:
		return apierr.NotFound(msg)
	case re.Status == http.StatusConflict:
		return apierr.Conflict(msg)
	case re.Status == http.StatusUnprocessableEntity || re.Status == http.StatusBadRequest:
		return apierr.Invalid(msg)
	default:
		return apierr.Unavailable(msg)
	}
}

// errorBody is the backend's error envelope. errors values are normally
// string lists but single strings show up too.
type errorBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func decodeRemoteError(status int, body []byte) *RemoteError {
	re := &RemoteError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return re
	}
	re.Message = eb.Message
	if len(eb.Errors) > 0 {
		re.Errors = make(map[string][]string, len(eb.Errors))
		for field, raw := range eb.Errors {
			var list []string
			if err := json.Unmarshal(raw, &list); err == nil {
				re.Errors[field] = list
				continue
			}
			var one string
			if err := json.Unmarshal(raw, &one); err == nil {
				re.Errors[field] = []string{one}
			}
		}
	}
	return re
}
