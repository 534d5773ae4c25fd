package controller

import (
	"encoding/json"
	"net/http"

	"github.com/atlantiplex/stage-api/requests"
	"github.com/atlantiplex/stage-api/session"
)

// Leave removes the authenticated participant from the session.
func (c *Controller) Leave(w http.ResponseWriter, r *http.Request) {
	pid := callerID(r)
	if pid == "" {
		requests.RespondAuthError(w)
		return
	}

	if err := c.Core.Leave(pid); err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// SetMedia applies a self-service device update for the authenticated
// participant.
func (c *Controller) SetMedia(w http.ResponseWriter, r *http.Request) {
	pid := callerID(r)
	if pid == "" {
		requests.RespondAuthError(w)
		return
	}

	var update session.MediaUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		requests.RespondBadRequest(w)
		return
	}

	p, err := c.Core.SetMedia(pid, update)
	if err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(p)
}

func (c *Controller) RaiseHand(w http.ResponseWriter, r *http.Request) {
	c.setHand(w, r, true)
}

func (c *Controller) LowerHand(w http.ResponseWriter, r *http.Request) {
	c.setHand(w, r, false)
}

func (c *Controller) setHand(w http.ResponseWriter, r *http.Request, raised bool) {
	pid := callerID(r)
	if pid == "" {
		requests.RespondAuthError(w)
		return
	}

	var err error
	if raised {
		err = c.Core.RaiseHand(pid)
	} else {
		err = c.Core.LowerHand(pid)
	}
	if err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
