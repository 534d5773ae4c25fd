package controller

import (
	"net/http"

	"github.com/atlantiplex/stage-api/auth"
	"github.com/atlantiplex/stage-api/session"
)

type Controller struct {
	Core *session.Orchestrator
}

func NewController(core *session.Orchestrator) *Controller {
	return &Controller{
		Core: core,
	}
}

// callerID extracts the authenticated participant ID set by the auth
// middleware, or "" when the request carried no token.
func callerID(r *http.Request) string {
	pid, _ := r.Context().Value(auth.ParticipantContextKey).(string)
	return pid
}
