package auth

import (
	"fmt"
	"time"

	"github.com/atlantiplex/stage-api/config"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

// ParticipantContextKey holds the authenticated participant ID on the
// request context.
const ParticipantContextKey contextKey = "participant_id"

// NewParticipantToken signs a session token for an admitted participant.
// The token identifies the participant to the HTTP surface; it is not an
// end-user identity.
func NewParticipantToken(participantID string) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(24 * time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"pid": participantID,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	}).SignedString(config.GetSigningSecret())
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

// GetTokenParticipantID validates a session token and extracts the
// participant ID.
func GetTokenParticipantID(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return config.GetSigningSecret(), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	pid, ok := claims["pid"].(string)
	if !ok {
		return "", fmt.Errorf("invalid token")
	}

	return pid, nil
}
