package session

import (
	"time"
)

type Role string

const (
	RoleHost      Role = "HOST"
	RoleCohost    Role = "COHOST"
	RoleModerator Role = "MODERATOR"
	RoleGuest     Role = "GUEST"
	RoleSpeaker   Role = "SPEAKER"
	RoleAudience  Role = "AUDIENCE"
)

// CanModerate reports whether the role carries moderator authority.
func (r Role) CanModerate() bool {
	return r == RoleHost || r == RoleCohost || r == RoleModerator
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleHost, RoleCohost, RoleModerator, RoleGuest, RoleSpeaker, RoleAudience:
		return true
	}
	return false
}

type Status string

const (
	StatusInvited     Status = "INVITED"
	StatusWaitingRoom Status = "WAITING_ROOM"
	StatusConnecting  Status = "CONNECTING"
	StatusConnected   Status = "CONNECTED"
	StatusMuted       Status = "MUTED"
	StatusKicked      Status = "KICKED"
	StatusLeft        Status = "LEFT"
)

// Terminal reports whether the status ends the participant's session.
func (s Status) Terminal() bool {
	return s == StatusKicked || s == StatusLeft
}

// Seated reports whether the status requires a slot assignment.
func (s Status) Seated() bool {
	return s == StatusConnected || s == StatusMuted
}

var validTransitions = map[Status][]Status{
	StatusInvited:     {StatusConnecting},
	StatusConnecting:  {StatusConnected, StatusWaitingRoom},
	StatusConnected:   {StatusMuted, StatusLeft, StatusKicked},
	StatusMuted:       {StatusConnected, StatusLeft, StatusKicked},
	StatusWaitingRoom: {StatusConnected, StatusLeft, StatusKicked},
}

// Media is the per-participant device snapshot.
type Media struct {
	CameraOn       bool   `json:"camera_on"`
	MicOn          bool   `json:"mic_on"`
	ScreenshareOn  bool   `json:"screenshare_on"`
	VideoQuality   string `json:"video_quality,omitempty"`
	AudioQuality   string `json:"audio_quality,omitempty"`
	BackgroundBlur bool   `json:"background_blur"`
}

// Participant is one admitted (or invited) person in the studio session.
// Slot is 1-based; 0 means no slot.
type Participant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	Media        Media     `json:"media"`
	HandRaised   bool      `json:"hand_raised"`
	HandRaisedAt time.Time `json:"hand_raised_at,omitempty"`
	Pinned       bool      `json:"pinned"`
	Slot         int       `json:"slot,omitempty"`
	InvitedAt    time.Time `json:"invited_at"`
	JoinedAt     time.Time `json:"joined_at,omitempty"`
	LastSeenAt   time.Time `json:"last_seen_at,omitempty"`
}

// transition moves the participant to the given status if the state
// machine allows it.
func (p *Participant) transition(to Status) error {
	for _, allowed := range validTransitions[p.Status] {
		if allowed == to {
			p.Status = to
			return nil
		}
	}
	return ErrInvalidTransition
}

// Store owns every participant record for the session. It never blocks;
// the facade's mutex guards all access.
type Store struct {
	participants map[string]*Participant
	order        []string
}

func NewStore() *Store {
	return &Store{
		participants: make(map[string]*Participant),
	}
}

func (s *Store) Add(p *Participant) {
	s.participants[p.ID] = p
	s.order = append(s.order, p.ID)
}

func (s *Store) Get(id string) (*Participant, bool) {
	p, ok := s.participants[id]
	return p, ok
}

// All returns the participants in the order they were first recorded.
func (s *Store) All() []*Participant {
	all := make([]*Participant, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.participants[id])
	}
	return all
}

// ActiveHosts counts hosts that are present in the session (seated or
// waiting). Used to enforce the at-least-one-host rule on moderator
// commands.
func (s *Store) ActiveHosts() int {
	count := 0
	for _, p := range s.participants {
		if p.Role == RoleHost && (p.Status.Seated() || p.Status == StatusWaitingRoom) {
			count++
		}
	}
	return count
}

// Pinned returns the currently pinned participant, if any.
func (s *Store) Pinned() (*Participant, bool) {
	for _, p := range s.participants {
		if p.Pinned {
			return p, true
		}
	}
	return nil, false
}
