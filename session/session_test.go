package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, *testClock) {
	t.Helper()

	clock := newTestClock()
	if opts.Clock == nil {
		opts.Clock = clock.Now
	}
	o, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o, clock
}

// admit issues an invite and redeems it in one step.
func admit(t *testing.T, o *Orchestrator, name string, role Role) *JoinResult {
	t.Helper()

	grant, err := o.IssueInvite(name, "", role, 0)
	require.NoError(t, err)

	result, err := o.Redeem(grant.Code)
	require.NoError(t, err)
	return result
}

func TestNewValidation(t *testing.T) {
	t.Run("rejects negative slot count", func(t *testing.T) {
		_, err := New(Options{SlotCount: -1})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("applies defaults", func(t *testing.T) {
		o, err := New(Options{})
		require.NoError(t, err)
		defer o.Close()
		assert.Equal(t, DefaultSlotCount, o.Counters().SlotCount)
	})
}

func TestSeatingOrder(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 3})

	alice := admit(t, o, "Alice", RoleHost)
	bob := admit(t, o, "Bob", RoleGuest)
	carol := admit(t, o, "Carol", RoleGuest)

	assert.Equal(t, 1, alice.Slot)
	assert.Equal(t, 2, bob.Slot)
	assert.Equal(t, 3, carol.Slot)

	dan := admit(t, o, "Dan", RoleGuest)
	assert.Equal(t, StatusWaitingRoom, dan.Participant.Status)
	assert.Equal(t, 1, dan.QueuePosition)

	snap := o.Snapshot()
	assert.Equal(t, []string{dan.Participant.ID}, snap.Waiting)

	require.NoError(t, o.Leave(bob.Participant.ID))

	promoted, ok := o.Participant(dan.Participant.ID)
	require.True(t, ok)
	assert.Equal(t, StatusConnected, promoted.Status)
	assert.Equal(t, 2, promoted.Slot)

	snap = o.Snapshot()
	assert.Empty(t, snap.Waiting)
	assert.Equal(t, []string{alice.Participant.ID, promoted.ID, carol.Participant.ID}, snap.Slots)
}

func TestModeratorMute(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 2})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleGuest).Participant

	micOn := true
	_, err := o.SetMedia(bob.ID, MediaUpdate{Mic: &micOn})
	require.NoError(t, err)

	muted, err := o.Moderate(alice.ID, CommandMute, bob.ID, CommandArgs{})
	require.NoError(t, err)
	assert.Equal(t, StatusMuted, muted.Status)
	assert.False(t, muted.Media.MicOn)

	t.Run("target cannot unmute itself", func(t *testing.T) {
		_, err := o.SetMedia(bob.ID, MediaUpdate{Mic: &micOn})
		assert.ErrorIs(t, err, ErrNotAuthorised)
	})

	t.Run("guest cannot moderate", func(t *testing.T) {
		_, err := o.Moderate(bob.ID, CommandUnmute, bob.ID, CommandArgs{})
		assert.ErrorIs(t, err, ErrNotAuthorised)
	})

	t.Run("moderator unmute leaves mic off", func(t *testing.T) {
		unmuted, err := o.Moderate(alice.ID, CommandUnmute, bob.ID, CommandArgs{})
		require.NoError(t, err)
		assert.Equal(t, StatusConnected, unmuted.Status)
		assert.False(t, unmuted.Media.MicOn)
	})

	t.Run("target can turn mic back on after unmute", func(t *testing.T) {
		p, err := o.SetMedia(bob.ID, MediaUpdate{Mic: &micOn})
		require.NoError(t, err)
		assert.True(t, p.Media.MicOn)
	})
}

func TestKickAndPromotion(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 1})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleGuest)
	require.Equal(t, StatusWaitingRoom, bob.Participant.Status)

	t.Run("kick of unknown target", func(t *testing.T) {
		_, err := o.Moderate(alice.ID, CommandKick, "no-such-participant", CommandArgs{})
		assert.ErrorIs(t, err, ErrUnknownTarget)
	})

	t.Run("last host cannot be kicked", func(t *testing.T) {
		_, err := o.Moderate(alice.ID, CommandKick, alice.ID, CommandArgs{})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("promoted host may kick the previous one", func(t *testing.T) {
		_, err := o.Moderate(alice.ID, CommandAssignRole, bob.Participant.ID, CommandArgs{Role: RoleHost})
		require.NoError(t, err)

		kicked, err := o.Moderate(bob.Participant.ID, CommandKick, alice.ID, CommandArgs{Reason: "handover"})
		require.NoError(t, err)
		assert.Equal(t, StatusKicked, kicked.Status)

		// the kick freed the only slot; Bob promotes out of the queue
		promoted, ok := o.Participant(bob.Participant.ID)
		require.True(t, ok)
		assert.Equal(t, StatusConnected, promoted.Status)
		assert.Equal(t, 1, promoted.Slot)
		assert.Empty(t, o.Snapshot().Waiting)
	})

	t.Run("kicked participant is terminal", func(t *testing.T) {
		assert.ErrorIs(t, o.Leave(alice.ID), ErrInvalidTransition)
		_, err := o.SetMedia(alice.ID, MediaUpdate{})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestInviteExpiryAndDedup(t *testing.T) {
	o, clock := newTestOrchestrator(t, Options{SlotCount: 2, RedeemDedupWindow: 10 * time.Second})

	t.Run("expired invite", func(t *testing.T) {
		grant, err := o.IssueInvite("Dana", "dana@example.com", RoleGuest, time.Second)
		require.NoError(t, err)

		clock.Advance(2 * time.Second)
		_, err = o.Redeem(grant.Code)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("redeem is idempotent within the dedup window", func(t *testing.T) {
		grant, err := o.IssueInvite("Dana", "dana@example.com", RoleGuest, 0)
		require.NoError(t, err)

		first, err := o.Redeem(grant.Code)
		require.NoError(t, err)

		clock.Advance(5 * time.Second)
		second, err := o.Redeem(grant.Code)
		require.NoError(t, err)
		assert.Equal(t, first.Participant.ID, second.Participant.ID)

		clock.Advance(11 * time.Second)
		_, err = o.Redeem(grant.Code)
		assert.ErrorIs(t, err, ErrAlreadyUsed)
	})
}

func TestPinExclusivity(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 3})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleGuest).Participant

	var deltas []Delta
	done := make(chan Delta, 16)
	h := o.Subscribe(func(ev Event) {
		if ev.Delta != nil {
			done <- *ev.Delta
		}
	}, o.Snapshot().Seq)
	defer o.Unsubscribe(h)

	_, err := o.Moderate(alice.ID, CommandPin, alice.ID, CommandArgs{})
	require.NoError(t, err)
	_, err = o.Moderate(alice.ID, CommandPin, bob.ID, CommandArgs{})
	require.NoError(t, err)

	for len(deltas) < 2 {
		select {
		case d := <-done:
			deltas = append(deltas, d)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for pin deltas")
		}
	}

	pinnedAlice, _ := o.Participant(alice.ID)
	pinnedBob, _ := o.Participant(bob.ID)
	assert.False(t, pinnedAlice.Pinned)
	assert.True(t, pinnedBob.Pinned)

	// the second pin carries both changes in one delta
	second := deltas[1]
	assert.Equal(t, OpPinChanged, second.Op)
	require.Len(t, second.Fields, 2)
	assert.Equal(t, alice.ID, second.Fields[0].ParticipantID)
	assert.Equal(t, false, second.Fields[0].After)
	assert.Equal(t, true, second.Fields[1].After)
}

func TestSwapSlots(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 3})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleGuest).Participant

	_, err := o.Moderate(alice.ID, CommandSwapSlots, alice.ID, CommandArgs{SwapWith: bob.ID})
	require.NoError(t, err)

	snap := o.Snapshot()
	assert.Equal(t, []string{bob.ID, alice.ID, ""}, snap.Slots)

	t.Run("waiting participants cannot be swapped", func(t *testing.T) {
		admit(t, o, "Carol", RoleGuest)
		dan := admit(t, o, "Dan", RoleGuest).Participant
		require.Equal(t, StatusWaitingRoom, dan.Status)

		_, err := o.Moderate(alice.ID, CommandSwapSlots, alice.ID, CommandArgs{SwapWith: dan.ID})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestWaitingQueueBound(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 1, MaxWaiting: 1})

	admit(t, o, "Alice", RoleHost)
	admit(t, o, "Bob", RoleGuest)

	grant, err := o.IssueInvite("Carol", "", RoleGuest, 0)
	require.NoError(t, err)

	_, err = o.Redeem(grant.Code)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// the code was not consumed; it redeems fine once space frees up
	require.NoError(t, o.Leave(o.Snapshot().Waiting[0]))
	result, err := o.Redeem(grant.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingRoom, result.Participant.Status)
}

func TestCounters(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 1})

	admit(t, o, "Alice", RoleHost)
	_, err := o.Redeem("bogus-code")
	assert.ErrorIs(t, err, ErrInvalidCode)

	c := o.Counters()
	assert.Equal(t, uint64(2), c.Seq) // invite + join
	assert.Equal(t, uint64(3), c.Operations)
	assert.Equal(t, uint64(1), c.Errors[KindInvalid])
	assert.Equal(t, 1, c.SlotsOccupied)
	assert.Equal(t, 1, c.SlotCount)
	assert.Equal(t, 0, c.Waiting)
}

func TestRaiseHand(t *testing.T) {
	o, clock := newTestOrchestrator(t, Options{SlotCount: 2})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleGuest).Participant

	require.NoError(t, o.RaiseHand(bob.ID))
	clock.Advance(time.Second)
	require.NoError(t, o.RaiseHand(alice.ID))

	snap := o.Snapshot()
	assert.Equal(t, []string{bob.ID, alice.ID}, snap.RaisedHands)

	require.NoError(t, o.LowerHand(bob.ID))
	assert.Equal(t, []string{alice.ID}, o.Snapshot().RaisedHands)

	t.Run("raising twice is a no-op", func(t *testing.T) {
		before := o.Counters().Seq
		require.NoError(t, o.RaiseHand(alice.ID))
		assert.Equal(t, before, o.Counters().Seq)
	})
}

func TestRoleRules(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{SlotCount: 4})

	alice := admit(t, o, "Alice", RoleHost).Participant
	bob := admit(t, o, "Bob", RoleCohost).Participant
	carol := admit(t, o, "Carol", RoleGuest).Participant

	t.Run("cohost cannot demote a host", func(t *testing.T) {
		_, err := o.Moderate(bob.ID, CommandAssignRole, alice.ID, CommandArgs{Role: RoleGuest})
		assert.ErrorIs(t, err, ErrNotAuthorised)
	})

	t.Run("cohost cannot grant host", func(t *testing.T) {
		_, err := o.Moderate(bob.ID, CommandAssignRole, carol.ID, CommandArgs{Role: RoleHost})
		assert.ErrorIs(t, err, ErrNotAuthorised)
	})

	t.Run("cohost may adjust other roles", func(t *testing.T) {
		p, err := o.Moderate(bob.ID, CommandAssignRole, carol.ID, CommandArgs{Role: RoleSpeaker})
		require.NoError(t, err)
		assert.Equal(t, RoleSpeaker, p.Role)
	})

	t.Run("last host cannot be demoted", func(t *testing.T) {
		_, err := o.Moderate(alice.ID, CommandAssignRole, alice.ID, CommandArgs{Role: RoleGuest})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("host demotion works once another host exists", func(t *testing.T) {
		_, err := o.Moderate(alice.ID, CommandAssignRole, bob.ID, CommandArgs{Role: RoleHost})
		require.NoError(t, err)

		p, err := o.Moderate(bob.ID, CommandAssignRole, alice.ID, CommandArgs{Role: RoleAudience})
		require.NoError(t, err)
		assert.Equal(t, RoleAudience, p.Role)
	})
}
