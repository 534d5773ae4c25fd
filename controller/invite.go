package controller

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/atlantiplex/stage-api/auth"
	"github.com/atlantiplex/stage-api/config"
	"github.com/atlantiplex/stage-api/requests"
	"github.com/atlantiplex/stage-api/session"
)

type IssueInviteRequest struct {
	Name       string       `json:"name"`
	Email      string       `json:"email,omitempty"`
	Role       session.Role `json:"role,omitempty"`
	TTLSeconds int          `json:"ttl_seconds,omitempty"`
}

// IssueInvite creates an invite code. Allowed for moderator-capable
// participants, or with the studio operator key so the first HOST can be
// invited before anyone is in the session.
func (c *Controller) IssueInvite(w http.ResponseWriter, r *http.Request) {
	if !c.issueAuthorised(r) {
		requests.RespondWithError(w, http.StatusForbidden, "invite issuing requires moderator authority or the studio key")
		return
	}

	var body IssueInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requests.RespondBadRequest(w)
		return
	}

	grant, err := c.Core.IssueInvite(body.Name, body.Email, body.Role, time.Duration(body.TTLSeconds)*time.Second)
	if err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(grant)
}

func (c *Controller) issueAuthorised(r *http.Request) bool {
	if key := config.GetStudioKey(); key != "" {
		provided := r.Header.Get("X-Studio-Key")
		if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
			return true
		}
	}

	pid, _ := r.Context().Value(auth.ParticipantContextKey).(string)
	if pid == "" {
		return false
	}
	caller, ok := c.Core.Participant(pid)
	return ok && caller.Role.CanModerate() && !caller.Status.Terminal()
}

type JoinRequest struct {
	Code string `json:"code"`
}

type JoinResponse struct {
	Participant   session.Participant `json:"participant"`
	Slot          int                 `json:"slot,omitempty"`
	QueuePosition int                 `json:"queue_position,omitempty"`
	Token         string              `json:"token"`
	TokenExpiry   time.Time           `json:"token_expiry"`
}

// Join redeems an invite code and hands back a session token for all
// further self-service calls.
func (c *Controller) Join(w http.ResponseWriter, r *http.Request) {
	var body JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		requests.RespondBadRequest(w)
		return
	}

	result, err := c.Core.Redeem(body.Code)
	if err != nil {
		requests.RespondWithSessionError(w, err)
		return
	}

	token, expiry, err := auth.NewParticipantToken(result.Participant.ID)
	if err != nil {
		requests.RespondInternalError(w)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(JoinResponse{
		Participant:   result.Participant,
		Slot:          result.Slot,
		QueuePosition: result.QueuePosition,
		Token:         token,
		TokenExpiry:   expiry,
	})
}
