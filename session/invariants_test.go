package session

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertInvariants checks every structural invariant against a
// committed snapshot.
func assertInvariants(t *testing.T, o *Orchestrator, step int) {
	t.Helper()

	snap := o.Snapshot()

	byID := make(map[string]Participant, len(snap.Participants))
	for _, p := range snap.Participants {
		byID[p.ID] = p
	}

	seated := make(map[string]int)
	for i, pid := range snap.Slots {
		if pid == "" {
			continue
		}
		_, dup := seated[pid]
		require.Falsef(t, dup, "step %d: %s seated twice", step, pid)
		seated[pid] = i + 1

		p, ok := byID[pid]
		require.Truef(t, ok, "step %d: slot %d references unknown %s", step, i+1, pid)
		require.Truef(t, p.Status.Seated(), "step %d: seated %s has status %s", step, pid, p.Status)
		require.Equalf(t, i+1, p.Slot, "step %d: %s slot field disagrees with table", step, pid)
	}

	pinned := 0
	for _, p := range snap.Participants {
		if p.Status.Seated() {
			slot, ok := seated[p.ID]
			require.Truef(t, ok, "step %d: %s is %s but unseated", step, p.ID, p.Status)
			require.Equal(t, p.Slot, slot)
		}
		if p.Status == StatusMuted {
			require.Falsef(t, p.Media.MicOn, "step %d: muted %s has a live mic", step, p.ID)
		}
		if p.Status.Terminal() || p.Status == StatusWaitingRoom || p.Status == StatusInvited {
			require.Zerof(t, p.Slot, "step %d: %s (%s) should hold no slot", step, p.ID, p.Status)
		}
		if p.Pinned {
			pinned++
		}
	}
	require.LessOrEqualf(t, pinned, 1, "step %d: more than one pinned participant", step)

	for _, pid := range snap.Waiting {
		_, inSlot := seated[pid]
		require.Falsef(t, inSlot, "step %d: %s both waiting and seated", step, pid)
		p, ok := byID[pid]
		require.True(t, ok)
		require.Equalf(t, StatusWaitingRoom, p.Status, "step %d: waiting %s has status %s", step, pid, p.Status)
	}

	require.Equal(t, snap.Seq, o.Counters().Seq)
}

func TestRandomisedOperationsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	o, clock := newTestOrchestrator(t, Options{
		SlotCount:         3,
		MaxWaiting:        5,
		RedeemDedupWindow: 5 * time.Second,
		SubscriberBacklog: 4096,
	})

	var mu sync.Mutex
	var deltas []Delta
	h := o.Subscribe(func(ev Event) {
		if ev.Delta != nil {
			mu.Lock()
			deltas = append(deltas, *ev.Delta)
			mu.Unlock()
		}
	}, 0)
	defer o.Unsubscribe(h)

	host := admit(t, o, "host", RoleHost).Participant

	roles := []Role{RoleGuest, RoleSpeaker, RoleAudience, RoleModerator, RoleCohost, RoleHost}
	commands := []Command{
		CommandMute, CommandUnmute, CommandStopCamera, CommandStopScreenshare,
		CommandKick, CommandPin, CommandUnpin, CommandAssignRole, CommandSwapSlots,
	}

	codes := []string{}
	pids := []string{host.ID}
	pick := func(items []string) string {
		if len(items) == 0 {
			return "missing"
		}
		return items[rng.Intn(len(items))]
	}

	checkTyped := func(err error) {
		if err == nil {
			return
		}
		_, typed := ErrorKind(err)
		require.Truef(t, typed, "untyped core error: %v", err)
	}

	for step := 0; step < 400; step++ {
		switch rng.Intn(8) {
		case 0:
			ttl := time.Duration(rng.Intn(20)) * time.Second
			grant, err := o.IssueInvite(fmt.Sprintf("guest-%d", step), "", roles[rng.Intn(len(roles))], ttl)
			checkTyped(err)
			if err == nil {
				codes = append(codes, grant.Code)
				pids = append(pids, grant.ParticipantID)
			}
		case 1:
			_, err := o.Redeem(pick(codes))
			checkTyped(err)
		case 2:
			checkTyped(o.Leave(pick(pids)))
		case 3:
			on := rng.Intn(2) == 0
			_, err := o.SetMedia(pick(pids), MediaUpdate{Camera: &on, Mic: &on})
			checkTyped(err)
		case 4:
			if rng.Intn(2) == 0 {
				checkTyped(o.RaiseHand(pick(pids)))
			} else {
				checkTyped(o.LowerHand(pick(pids)))
			}
		default:
			_, err := o.Moderate(pick(pids), commands[rng.Intn(len(commands))], pick(pids), CommandArgs{
				Role:     roles[rng.Intn(len(roles))],
				SwapWith: pick(pids),
			})
			checkTyped(err)
		}

		if rng.Intn(4) == 0 {
			clock.Advance(time.Duration(rng.Intn(3)) * time.Second)
		}
		assertInvariants(t, o, step)
	}

	// sequence numbers are strictly monotonic and contiguous
	finalSeq := o.Counters().Seq
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return uint64(len(deltas)) == finalSeq
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, d := range deltas {
		require.Equal(t, uint64(i+1), d.Seq)
	}
}
