package planerr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// httpStatus maps a Kind to the status code cmd/plannerd's HTTP surface
// answers with, mirroring the teacher's AppError.HTTPStatus field.
func httpStatus(k Kind) int {
	switch k {
	case KindParse:
		return http.StatusBadRequest
	case KindOntology:
		return http.StatusUnprocessableEntity
	case KindReference:
		return http.StatusNotFound
	case KindInvariant:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body cmd/plannerd's HTTP handlers write on
// failure.
type ErrorResponse struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// RespondWithError writes err as a JSON error response, using err's Kind
// when it is a *Error and falling back to an internal-error response
// otherwise.
func RespondWithError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindInvariant, Msg: err.Error()}
	}
	resp := ErrorResponse{}
	resp.Error.Kind = e.Kind.String()
	resp.Error.Message = e.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(e.Kind))
	_ = json.NewEncoder(w).Encode(resp)
}
