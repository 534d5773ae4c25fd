package requests

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/atlantiplex/stage-api/constants"
	"github.com/atlantiplex/stage-api/session"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondWithError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_, _ = w.Write(marshalErrorBody(message, ""))
}

// RespondWithSessionError maps a typed core error onto the wire: the
// HTTP status carries the failure class and the body carries the
// machine-readable kind.
func RespondWithSessionError(w http.ResponseWriter, err error) {
	kind, ok := session.ErrorKind(err)
	if !ok {
		log.Printf("core error: %s\n", err)
		RespondInternalError(w)
		return
	}

	var status int
	var message string
	switch kind {
	case session.KindInvalid:
		status, message = http.StatusBadRequest, constants.ErrorInviteInvalid
	case session.KindExpired:
		status, message = http.StatusGone, constants.ErrorInviteExpired
	case session.KindAlreadyUsed:
		status, message = http.StatusConflict, constants.ErrorInviteUsed
	case session.KindNotAuthorised:
		status, message = http.StatusForbidden, constants.ErrorNotAuthorised
	case session.KindUnknownTarget:
		status, message = http.StatusNotFound, constants.ErrorNotFound
	case session.KindInvalidTransition:
		status, message = http.StatusConflict, constants.ErrorStateConflict
	case session.KindCapacityExceeded:
		status, message = http.StatusConflict, constants.ErrorCapacity
	case session.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	default:
		status, message = http.StatusInternalServerError, constants.ErrorInternal
	}

	w.WriteHeader(status)
	_, _ = w.Write(marshalErrorBody(message, string(kind)))
}

func RespondNotFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(marshalErrorBody(constants.ErrorNotFound, ""))
}

func RespondBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(marshalErrorBody(constants.ErrorBadRequest, ""))
}

func RespondInternalError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(marshalErrorBody(constants.ErrorInternal, ""))
}

func RespondAuthError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(marshalErrorBody(constants.ErrorNotAuthenticated, ""))
}

func marshalErrorBody(message, code string) []byte {
	body, err := json.MarshalIndent(ErrorResponse{Error: message, Code: code}, "", " ")
	if err != nil {
		body, _ = json.MarshalIndent(ErrorResponse{Error: err.Error()}, "", " ")
	}
	return body
}
