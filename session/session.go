// Package session implements the guest session orchestrator: it admits
// invited participants into a bounded set of on-air slots, tracks their
// media and role state, services a waiting queue as slots free up, and
// publishes a delta for every committed state change.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures a new orchestrator. Zero values fall back to the
// defaults below.
type Options struct {
	SlotCount         int           // on-air slots; must be >= 1 (default 6)
	MaxWaiting        int           // waiting-queue bound; 0 = unbounded
	InviteCodeBytes   int           // invite code entropy in bytes (8..12, default 12)
	DeltaRingSize     int           // retained deltas for subscriber catch-up
	RedeemDedupWindow time.Duration // idempotent re-redeem window
	SubscriberBacklog int           // per-subscriber buffered events before resync
	Clock             func() time.Time
}

const (
	DefaultSlotCount       = 6
	DefaultInviteCodeBytes = 12
	DefaultDeltaRingSize   = 256
	DefaultRedeemDedup     = 10 * time.Second
)

// Orchestrator is the single public entry point. Every public operation
// runs under one mutex; operations never suspend while holding it, and
// subscriber callbacks are dispatched outside it.
type Orchestrator struct {
	mu sync.Mutex

	store    *Store
	slots    *SlotTable
	waitlist *Waitlist
	invites  *Registry
	ring     *deltaRing
	emitter  *Emitter

	seq  uint64
	ops  uint64
	errs map[Kind]uint64

	now func() time.Time
}

func New(opts Options) (*Orchestrator, error) {
	if opts.SlotCount == 0 {
		opts.SlotCount = DefaultSlotCount
	}
	if opts.SlotCount < 1 {
		return nil, newError(KindValidation, "slot count must be at least 1")
	}
	if opts.InviteCodeBytes == 0 {
		opts.InviteCodeBytes = DefaultInviteCodeBytes
	}
	if opts.InviteCodeBytes < 8 || opts.InviteCodeBytes > 12 {
		return nil, newError(KindValidation, "invite code length must be 8 to 12 bytes")
	}
	if opts.DeltaRingSize <= 0 {
		opts.DeltaRingSize = DefaultDeltaRingSize
	}
	if opts.RedeemDedupWindow <= 0 {
		opts.RedeemDedupWindow = DefaultRedeemDedup
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Orchestrator{
		store:    NewStore(),
		slots:    NewSlotTable(opts.SlotCount),
		waitlist: NewWaitlist(opts.MaxWaiting),
		invites:  NewRegistry(opts.InviteCodeBytes, opts.RedeemDedupWindow, opts.Clock),
		ring:     newDeltaRing(opts.DeltaRingSize),
		emitter:  NewEmitter(opts.SubscriberBacklog),
		errs:     make(map[Kind]uint64),
		now:      opts.Clock,
	}, nil
}

// fail records a rejected operation and passes the error through.
// Caller holds the mutex.
func (o *Orchestrator) fail(err error) error {
	o.ops++
	if kind, ok := ErrorKind(err); ok {
		o.errs[kind]++
	}
	return err
}

// commit assigns the next sequence number, appends the delta to the
// ring, and hands it to the emitter. Caller holds the mutex; the
// emitter only enqueues here, so commit order fixes delivery order.
func (o *Orchestrator) commit(d *Delta) {
	o.ops++
	o.seq++
	d.Seq = o.seq
	d.At = o.now()
	o.ring.append(*d)
	o.emitter.Publish(*d, o.snapshotLocked)
}

// noop records an operation that changed nothing and emits no delta.
func (o *Orchestrator) noop() {
	o.ops++
}

// InviteGrant is the result of issuing an invitation.
type InviteGrant struct {
	ParticipantID string    `json:"participant_id"`
	Code          string    `json:"code"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// IssueInvite creates a participant record in INVITED state and a
// single-use code for it. A ttl of 0 means the code is valid until
// process exit.
func (o *Orchestrator) IssueInvite(name, email string, role Role, ttl time.Duration) (*InviteGrant, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, o.fail(newError(KindValidation, "display name is required"))
	}
	if role == "" {
		role = RoleGuest
	}
	if !role.Valid() {
		return nil, o.fail(newError(KindValidation, "unknown role"))
	}
	if ttl < 0 {
		return nil, o.fail(newError(KindValidation, "ttl must not be negative"))
	}

	pid := uuid.NewString()
	inv, err := o.invites.Issue(pid, role, ttl)
	if err != nil {
		o.ops++
		return nil, err
	}

	o.store.Add(&Participant{
		ID:        pid,
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    StatusInvited,
		InvitedAt: o.now(),
	})

	d := &Delta{Op: OpInviteIssued, ParticipantID: pid}
	d.field("status", nil, StatusInvited)
	d.field("role", nil, role)
	o.commit(d)

	return &InviteGrant{
		ParticipantID: pid,
		Code:          inv.Code,
		ExpiresAt:     inv.ExpiresAt,
	}, nil
}

// JoinResult is the caller-facing outcome of a redemption.
type JoinResult struct {
	Participant   Participant `json:"participant"`
	Slot          int         `json:"slot,omitempty"`
	QueuePosition int         `json:"queue_position,omitempty"` // 1-based; 0 when seated
}

// Redeem consumes an invite code and admits the participant: into the
// lowest free slot when one exists, otherwise into the waiting room. A
// repeat redemption inside the dedup window returns the current state
// without mutating anything.
func (o *Orchestrator) Redeem(code string) (*JoinResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	inv, err := o.invites.Find(code)
	if err != nil {
		return nil, o.fail(err)
	}

	p, ok := o.store.Get(inv.ParticipantID)
	if !ok {
		return nil, o.fail(ErrInvalidCode)
	}

	if inv.consumed() {
		// Client retry within the dedup window.
		o.noop()
		return o.joinResultLocked(p), nil
	}

	if p.Status != StatusInvited {
		return nil, o.fail(ErrInvalidTransition)
	}
	if o.slots.Occupied() == o.slots.Size() && o.waitlist.Full() {
		// Reject before consuming so the code stays redeemable.
		return nil, o.fail(ErrCapacityExceeded)
	}

	o.invites.Consume(inv)

	now := o.now()
	_ = p.transition(StatusConnecting)
	p.JoinedAt = now
	p.LastSeenAt = now

	d := &Delta{Op: OpParticipantJoined, ParticipantID: p.ID}
	if slot, seated := o.slots.TrySeat(p.ID); seated {
		_ = p.transition(StatusConnected)
		p.Slot = slot
		d.field("status", StatusInvited, StatusConnected)
		d.slot(slot, "", p.ID)
	} else {
		_ = o.waitlist.Enqueue(p.ID)
		_ = p.transition(StatusWaitingRoom)
		d.field("status", StatusInvited, StatusWaitingRoom)
		d.queue(o.waitlist.ToSlice())
	}
	o.commit(d)

	return o.joinResultLocked(p), nil
}

func (o *Orchestrator) joinResultLocked(p *Participant) *JoinResult {
	res := &JoinResult{Participant: *p, Slot: p.Slot}
	if p.Status == StatusWaitingRoom {
		for i, pid := range o.waitlist.ToSlice() {
			if pid == p.ID {
				res.QueuePosition = i + 1
				break
			}
		}
	}
	return res
}

// Leave transitions the participant to LEFT, frees any slot or queue
// position it held, and promotes the queue head into a freed slot.
func (o *Orchestrator) Leave(pid string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.store.Get(pid)
	if !ok {
		return o.fail(ErrUnknownTarget)
	}

	prev := p.Status
	if err := p.transition(StatusLeft); err != nil {
		return o.fail(err)
	}

	d := &Delta{Op: OpParticipantLeft, ParticipantID: pid}
	d.field("status", prev, StatusLeft)
	o.departLocked(p, d)
	o.commit(d)
	return nil
}

// departLocked clears everything a departing (LEFT or KICKED)
// participant held: slot, queue position, pin, raised hand. Vacating a
// slot triggers one promotion step.
func (o *Orchestrator) departLocked(p *Participant, d *Delta) {
	if slot, held := o.slots.Vacate(p.ID); held {
		p.Slot = 0
		d.slot(slot, p.ID, "")
		o.promoteLocked(d)
	} else if o.waitlist.Remove(p.ID) {
		d.queue(o.waitlist.ToSlice())
	}
	if p.Pinned {
		p.Pinned = false
		d.field("pinned", true, false)
	}
	if p.HandRaised {
		p.HandRaised = false
		d.field("hand_raised", true, false)
	}
}

// promoteLocked seats the first still-waiting queue head into the freed
// slot, dropping stale heads that already left.
func (o *Orchestrator) promoteLocked(d *Delta) {
	for {
		head, ok := o.waitlist.PopHead()
		if !ok {
			return
		}
		cand, ok := o.store.Get(head)
		if !ok || cand.Status != StatusWaitingRoom {
			continue
		}

		slot, seated := o.slots.TrySeat(cand.ID)
		if !seated {
			// No free slot after all; put the head back untouched.
			_ = o.waitlist.Enqueue(cand.ID)
			return
		}
		_ = cand.transition(StatusConnected)
		cand.Slot = slot
		d.fieldFor(cand.ID, "status", StatusWaitingRoom, StatusConnected)
		d.slot(slot, "", cand.ID)
		d.queue(o.waitlist.ToSlice())
		return
	}
}

// MediaUpdate carries self-service device changes; nil fields are left
// untouched.
type MediaUpdate struct {
	Camera       *bool   `json:"camera,omitempty"`
	Mic          *bool   `json:"mic,omitempty"`
	Screenshare  *bool   `json:"screenshare,omitempty"`
	VideoQuality *string `json:"video_quality,omitempty"`
	AudioQuality *string `json:"audio_quality,omitempty"`
	Blur         *bool   `json:"blur,omitempty"`
}

// SetMedia applies a self-service device update. Turning the mic on is
// refused while a moderator mute is in force.
func (o *Orchestrator) SetMedia(pid string, update MediaUpdate) (*Participant, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.store.Get(pid)
	if !ok {
		return nil, o.fail(ErrUnknownTarget)
	}
	if p.Status.Terminal() || p.Status == StatusInvited {
		return nil, o.fail(ErrInvalidTransition)
	}
	if update.Mic != nil && *update.Mic && p.Status == StatusMuted {
		return nil, o.fail(ErrNotAuthorised)
	}

	p.LastSeenAt = o.now()

	d := &Delta{Op: OpMediaChanged, ParticipantID: pid}
	if update.Camera != nil && *update.Camera != p.Media.CameraOn {
		d.field("camera_on", p.Media.CameraOn, *update.Camera)
		p.Media.CameraOn = *update.Camera
	}
	if update.Mic != nil && *update.Mic != p.Media.MicOn {
		d.field("mic_on", p.Media.MicOn, *update.Mic)
		p.Media.MicOn = *update.Mic
	}
	if update.Screenshare != nil && *update.Screenshare != p.Media.ScreenshareOn {
		d.field("screenshare_on", p.Media.ScreenshareOn, *update.Screenshare)
		p.Media.ScreenshareOn = *update.Screenshare
	}
	if update.VideoQuality != nil && *update.VideoQuality != p.Media.VideoQuality {
		d.field("video_quality", p.Media.VideoQuality, *update.VideoQuality)
		p.Media.VideoQuality = *update.VideoQuality
	}
	if update.AudioQuality != nil && *update.AudioQuality != p.Media.AudioQuality {
		d.field("audio_quality", p.Media.AudioQuality, *update.AudioQuality)
		p.Media.AudioQuality = *update.AudioQuality
	}
	if update.Blur != nil && *update.Blur != p.Media.BackgroundBlur {
		d.field("background_blur", p.Media.BackgroundBlur, *update.Blur)
		p.Media.BackgroundBlur = *update.Blur
	}

	if len(d.Fields) == 0 {
		o.noop()
	} else {
		o.commit(d)
	}

	cp := *p
	return &cp, nil
}

// RaiseHand flags the participant as wanting to speak. Raising an
// already-raised hand is a no-op.
func (o *Orchestrator) RaiseHand(pid string) error {
	return o.setHand(pid, true)
}

// LowerHand clears the hand-raised flag.
func (o *Orchestrator) LowerHand(pid string) error {
	return o.setHand(pid, false)
}

func (o *Orchestrator) setHand(pid string, raised bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.store.Get(pid)
	if !ok {
		return o.fail(ErrUnknownTarget)
	}
	if p.Status.Terminal() || p.Status == StatusInvited {
		return o.fail(ErrInvalidTransition)
	}

	p.LastSeenAt = o.now()
	if p.HandRaised == raised {
		o.noop()
		return nil
	}

	p.HandRaised = raised
	if raised {
		p.HandRaisedAt = o.now()
	}

	d := &Delta{Op: OpHandChanged, ParticipantID: pid}
	d.field("hand_raised", !raised, raised)
	o.commit(d)
	return nil
}

// Participant returns a copy of one participant record.
func (o *Orchestrator) Participant(pid string) (*Participant, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.store.Get(pid)
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Snapshot returns the committed state and latest sequence number.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers a callback for committed events. When the ring
// still covers since, the subscriber is preloaded with the missing
// deltas; otherwise it receives one full snapshot and live deltas from
// there.
func (o *Orchestrator) Subscribe(fn Subscriber, since uint64) Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []Event
	if deltas, ok := o.ring.since(since); ok {
		for i := range deltas {
			pending = append(pending, Event{Delta: &deltas[i]})
		}
	} else {
		pending = []Event{{Snapshot: o.snapshotLocked()}}
	}
	return o.emitter.Subscribe(fn, pending)
}

// Unsubscribe detaches a subscriber and stops its dispatch goroutine.
func (o *Orchestrator) Unsubscribe(h Handle) {
	o.emitter.Unsubscribe(h)
}

// Close shuts down subscriber dispatch. The orchestrator itself holds
// no other resources.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

// Counters is the observability surface of the core; it logs nothing.
type Counters struct {
	Operations         uint64          `json:"operations"`
	Errors             map[Kind]uint64 `json:"errors"`
	Seq                uint64          `json:"seq"`
	SlotCount          int             `json:"slot_count"`
	SlotsOccupied      int             `json:"slots_occupied"`
	Waiting            int             `json:"waiting"`
	Subscribers        int             `json:"subscribers"`
	OutstandingInvites int             `json:"outstanding_invites"`
}

func (o *Orchestrator) Counters() Counters {
	o.mu.Lock()
	defer o.mu.Unlock()

	errs := make(map[Kind]uint64, len(o.errs))
	for kind, count := range o.errs {
		errs[kind] = count
	}
	return Counters{
		Operations:         o.ops,
		Errors:             errs,
		Seq:                o.seq,
		SlotCount:          o.slots.Size(),
		SlotsOccupied:      o.slots.Occupied(),
		Waiting:            o.waitlist.Len(),
		Subscribers:        o.emitter.Len(),
		OutstandingInvites: o.invites.Outstanding(),
	}
}
