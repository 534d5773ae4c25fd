package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"
)

// Invitation is one outstanding single-use invite code.
type Invitation struct {
	Code          string    `json:"code"`
	ParticipantID string    `json:"participant_id"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"` // zero = valid until process exit
	ConsumedAt    time.Time `json:"-"`                    // zero = outstanding
}

func (inv *Invitation) consumed() bool {
	return !inv.ConsumedAt.IsZero()
}

func (inv *Invitation) expired(now time.Time) bool {
	return !inv.ExpiresAt.IsZero() && now.After(inv.ExpiresAt)
}

// Registry issues, validates, and consumes invite codes. Codes are
// compared in constant time; the table stays small enough for a linear
// scan. Guarded by the facade's mutex.
type Registry struct {
	invites   []*Invitation
	codeBytes int
	dedup     time.Duration
	now       func() time.Time
}

func NewRegistry(codeBytes int, dedup time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		codeBytes: codeBytes,
		dedup:     dedup,
		now:       now,
	}
}

// Issue creates an invitation for the participant. A ttl of 0 means the
// code never expires. Dead invites are compacted opportunistically here.
func (r *Registry) Issue(participantID string, role Role, ttl time.Duration) (*Invitation, error) {
	r.compact()

	code, err := r.generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	inv := &Invitation{
		Code:          code,
		ParticipantID: participantID,
		Role:          role,
		CreatedAt:     r.now(),
	}
	if ttl > 0 {
		inv.ExpiresAt = inv.CreatedAt.Add(ttl)
	}

	r.invites = append(r.invites, inv)
	return inv, nil
}

// Find locates the invitation for the code without consuming it. A
// consumed invitation is still returned while the redemption dedup
// window is open, so client retries stay idempotent.
func (r *Registry) Find(code string) (*Invitation, error) {
	now := r.now()

	var match *Invitation
	codeBytes := []byte(code)
	for _, inv := range r.invites {
		if subtle.ConstantTimeCompare(codeBytes, []byte(inv.Code)) == 1 {
			match = inv
		}
	}
	if match == nil {
		return nil, ErrInvalidCode
	}

	if match.consumed() {
		if now.Sub(match.ConsumedAt) <= r.dedup {
			return match, nil
		}
		return nil, ErrAlreadyUsed
	}

	if match.expired(now) {
		return nil, ErrExpired
	}

	return match, nil
}

// Consume marks the invitation redeemed.
func (r *Registry) Consume(inv *Invitation) {
	inv.ConsumedAt = r.now()
}

// Outstanding counts invitations that can still be redeemed.
func (r *Registry) Outstanding() int {
	now := r.now()
	count := 0
	for _, inv := range r.invites {
		if !inv.consumed() && !inv.expired(now) {
			count++
		}
	}
	return count
}

// compact drops invitations that can never be redeemed again: expired
// ones and consumed ones whose dedup window has closed.
func (r *Registry) compact() {
	now := r.now()
	kept := r.invites[:0]
	for _, inv := range r.invites {
		if inv.consumed() && now.Sub(inv.ConsumedAt) > r.dedup {
			continue
		}
		if !inv.consumed() && inv.expired(now) {
			continue
		}
		kept = append(kept, inv)
	}
	r.invites = kept
}

func (r *Registry) generateCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		raw := make([]byte, r.codeBytes)
		if _, err := rand.Read(raw); err != nil {
			return "", err
		}
		code := base64.RawURLEncoding.EncodeToString(raw)
		if !r.codeExists(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique invite code")
}

func (r *Registry) codeExists(code string) bool {
	for _, inv := range r.invites {
		if inv.Code == code {
			return true
		}
	}
	return false
}
