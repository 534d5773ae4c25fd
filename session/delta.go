package session

import "time"

// DeltaOp names the mutation a delta describes.
type DeltaOp string

const (
	OpInviteIssued      DeltaOp = "invite_issued"
	OpParticipantJoined DeltaOp = "participant_joined"
	OpParticipantLeft   DeltaOp = "participant_left"
	OpParticipantKicked DeltaOp = "participant_kicked"
	OpMediaChanged      DeltaOp = "media_changed"
	OpHandChanged       DeltaOp = "hand_changed"
	OpMuteChanged       DeltaOp = "mute_changed"
	OpPinChanged        DeltaOp = "pin_changed"
	OpRoleChanged       DeltaOp = "role_changed"
	OpSlotsSwapped      DeltaOp = "slots_swapped"
)

// FieldChange records one field's before/after values. ParticipantID is
// set only when the change applies to a participant other than the
// delta's subject (e.g. the previously pinned participant).
type FieldChange struct {
	ParticipantID string `json:"participant_id,omitempty"`
	Field         string `json:"field"`
	Before        any    `json:"before"`
	After         any    `json:"after"`
}

// SlotChange records one slot's occupant change. Empty string = empty slot.
type SlotChange struct {
	Slot   int    `json:"slot"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Delta is the minimal description of a single committed state change.
// Sequence numbers are strictly monotonic and contiguous.
type Delta struct {
	Seq           uint64        `json:"seq"`
	Op            DeltaOp       `json:"op"`
	ParticipantID string        `json:"participant_id,omitempty"`
	Actor         string        `json:"actor,omitempty"`
	Fields        []FieldChange `json:"fields,omitempty"`
	Slots         []SlotChange  `json:"slots,omitempty"`
	QueueChanged  bool          `json:"queue_changed,omitempty"`
	Queue         []string      `json:"queue,omitempty"`
	At            time.Time     `json:"at"`
}

func (d *Delta) field(field string, before, after any) {
	d.Fields = append(d.Fields, FieldChange{Field: field, Before: before, After: after})
}

func (d *Delta) fieldFor(pid, field string, before, after any) {
	d.Fields = append(d.Fields, FieldChange{ParticipantID: pid, Field: field, Before: before, After: after})
}

func (d *Delta) slot(slot int, before, after string) {
	d.Slots = append(d.Slots, SlotChange{Slot: slot, Before: before, After: after})
}

func (d *Delta) queue(order []string) {
	d.QueueChanged = true
	d.Queue = order
}

// deltaRing keeps the most recent deltas so late subscribers can catch
// up without a full snapshot.
type deltaRing struct {
	buf  []Delta
	size int
}

func newDeltaRing(size int) *deltaRing {
	return &deltaRing{size: size}
}

func (r *deltaRing) append(d Delta) {
	r.buf = append(r.buf, d)
	if len(r.buf) > r.size {
		r.buf = r.buf[len(r.buf)-r.size:]
	}
}

// since returns all retained deltas with Seq > seq. ok is false when the
// ring no longer reaches back that far, in which case the caller must
// fall back to a snapshot.
func (r *deltaRing) since(seq uint64) ([]Delta, bool) {
	if len(r.buf) == 0 {
		return nil, true
	}
	oldest := r.buf[0].Seq
	if seq+1 < oldest {
		return nil, false
	}
	var out []Delta
	for _, d := range r.buf {
		if d.Seq > seq {
			out = append(out, d)
		}
	}
	return out, true
}
