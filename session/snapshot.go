package session

import (
	"sort"

	"github.com/samber/lo"
)

// Snapshot is the full committed state at a single sequence number.
type Snapshot struct {
	Seq          uint64        `json:"seq"`
	Participants []Participant `json:"participants"`
	Slots        []string      `json:"slots"`
	Waiting      []string      `json:"waiting"`
	RaisedHands  []string      `json:"raised_hands,omitempty"`
}

// snapshotLocked builds a snapshot from current state. Caller holds the
// facade mutex.
func (o *Orchestrator) snapshotLocked() *Snapshot {
	all := o.store.All()

	raised := lo.Filter(all, func(p *Participant, _ int) bool {
		return p.HandRaised && !p.Status.Terminal()
	})
	sort.Slice(raised, func(i, j int) bool {
		return raised[i].HandRaisedAt.Before(raised[j].HandRaisedAt)
	})

	return &Snapshot{
		Seq: o.seq,
		Participants: lo.Map(all, func(p *Participant, _ int) Participant {
			return *p
		}),
		Slots:   o.slots.Seats(),
		Waiting: o.waitlist.ToSlice(),
		RaisedHands: lo.Map(raised, func(p *Participant, _ int) string {
			return p.ID
		}),
	}
}
