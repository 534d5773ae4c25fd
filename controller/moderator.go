package controller

import (
	"encoding/json"
	"net/http"

	"github.com/atlantiplex/stage-api/requests"
	"github.com/atlantiplex/stage-api/session"
)

type ModerateRequest struct {
	Command  session.Command `json:"command"`
	TargetID string          `json:"target_id"`
	Role     session.Role    `json:"role,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	SwapWith string          `json:"swap_with,omitempty"`
}

// Moderate applies a privileged command on behalf of the authenticated
// caller; authority checks live in the core.
func (c *Controller) Moderate(w http.ResponseWriter, r *http.Request) {
	pid := callerID(r)
	if pid == "" {
		requests.RespondAuthError(w)
		return
	}

	var body ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Command == "" || body.TargetID == "" {
		requests.RespondBadRequest(w)
		return
	}

	target, err := c.Core.Moderate(pid, body.Command, body.TargetID, session.CommandArgs{
		Role:     body.Role,
		Reason:   body.Reason,
		SwapWith: body.SwapWith,
	})
	if err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(target)
}
