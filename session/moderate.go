package session

// Command is a privileged moderator operation.
type Command string

const (
	CommandMute            Command = "mute"
	CommandUnmute          Command = "unmute"
	CommandStopCamera      Command = "stop_camera"
	CommandStopScreenshare Command = "stop_screenshare"
	CommandKick            Command = "kick"
	CommandPin             Command = "pin"
	CommandUnpin           Command = "unpin"
	CommandAssignRole      Command = "assign_role"
	CommandSwapSlots       Command = "swap_slots"
)

// CommandArgs carries the optional arguments of a moderator command.
type CommandArgs struct {
	Role     Role   `json:"role,omitempty"`      // assign_role
	Reason   string `json:"reason,omitempty"`    // kick
	SwapWith string `json:"swap_with,omitempty"` // swap_slots
}

// Moderate authorises and applies a privileged command. The caller must
// be a present participant with role HOST, COHOST, or MODERATOR.
func (o *Orchestrator) Moderate(callerID string, cmd Command, targetID string, args CommandArgs) (*Participant, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	caller, ok := o.store.Get(callerID)
	if !ok || caller.Status.Terminal() || caller.Status == StatusInvited || !caller.Role.CanModerate() {
		return nil, o.fail(ErrNotAuthorised)
	}

	target, ok := o.store.Get(targetID)
	if !ok {
		return nil, o.fail(ErrUnknownTarget)
	}

	var (
		d   *Delta
		err error
	)
	switch cmd {
	case CommandMute:
		d, err = o.muteLocked(target)
	case CommandUnmute:
		d, err = o.unmuteLocked(target)
	case CommandStopCamera:
		d, err = o.stopDeviceLocked(target, "camera_on")
	case CommandStopScreenshare:
		d, err = o.stopDeviceLocked(target, "screenshare_on")
	case CommandKick:
		d, err = o.kickLocked(caller, target, args.Reason)
	case CommandPin:
		d, err = o.pinLocked(target)
	case CommandUnpin:
		d, err = o.unpinLocked(target)
	case CommandAssignRole:
		d, err = o.assignRoleLocked(caller, target, args.Role)
	case CommandSwapSlots:
		d, err = o.swapSlotsLocked(target, args.SwapWith)
	default:
		err = newError(KindValidation, "unknown moderator command")
	}

	if err != nil {
		return nil, o.fail(err)
	}

	if d == nil {
		o.noop()
	} else {
		d.Actor = caller.ID
		o.commit(d)
	}

	cp := *target
	return &cp, nil
}

// muteLocked forces the target's mic off and marks the mute as
// moderator-held: the target cannot lift it while status is MUTED.
func (o *Orchestrator) muteLocked(target *Participant) (*Delta, error) {
	if err := target.transition(StatusMuted); err != nil {
		return nil, err
	}

	d := &Delta{Op: OpMuteChanged, ParticipantID: target.ID}
	d.field("status", StatusConnected, StatusMuted)
	if target.Media.MicOn {
		d.field("mic_on", true, false)
		target.Media.MicOn = false
	}
	return d, nil
}

// unmuteLocked releases a moderator mute. The mic stays off until the
// target turns it back on itself.
func (o *Orchestrator) unmuteLocked(target *Participant) (*Delta, error) {
	if target.Status != StatusMuted {
		return nil, ErrInvalidTransition
	}
	_ = target.transition(StatusConnected)

	d := &Delta{Op: OpMuteChanged, ParticipantID: target.ID}
	d.field("status", StatusMuted, StatusConnected)
	return d, nil
}

func (o *Orchestrator) stopDeviceLocked(target *Participant, field string) (*Delta, error) {
	if target.Status.Terminal() || target.Status == StatusInvited {
		return nil, ErrInvalidTransition
	}

	var on *bool
	switch field {
	case "camera_on":
		on = &target.Media.CameraOn
	case "screenshare_on":
		on = &target.Media.ScreenshareOn
	}
	if !*on {
		return nil, nil // already off
	}
	*on = false

	d := &Delta{Op: OpMediaChanged, ParticipantID: target.ID}
	d.field(field, true, false)
	return d, nil
}

func (o *Orchestrator) kickLocked(caller, target *Participant, reason string) (*Delta, error) {
	if target.Role == RoleHost {
		if caller.Role != RoleHost {
			return nil, ErrNotAuthorised
		}
		if o.store.ActiveHosts() <= 1 {
			return nil, ErrInvalidTransition
		}
	}

	prev := target.Status
	if err := target.transition(StatusKicked); err != nil {
		return nil, err
	}

	d := &Delta{Op: OpParticipantKicked, ParticipantID: target.ID}
	d.field("status", prev, StatusKicked)
	if reason != "" {
		d.field("kick_reason", nil, reason)
	}
	o.departLocked(target, d)
	return d, nil
}

// pinLocked pins the target; at most one participant is pinned, so any
// previous pin is cleared in the same delta.
func (o *Orchestrator) pinLocked(target *Participant) (*Delta, error) {
	if !target.Status.Seated() {
		return nil, ErrInvalidTransition
	}
	if target.Pinned {
		return nil, nil
	}

	d := &Delta{Op: OpPinChanged, ParticipantID: target.ID}
	if prev, ok := o.store.Pinned(); ok {
		prev.Pinned = false
		d.fieldFor(prev.ID, "pinned", true, false)
	}
	target.Pinned = true
	d.field("pinned", false, true)
	return d, nil
}

func (o *Orchestrator) unpinLocked(target *Participant) (*Delta, error) {
	if !target.Pinned {
		return nil, ErrInvalidTransition
	}
	target.Pinned = false

	d := &Delta{Op: OpPinChanged, ParticipantID: target.ID}
	d.field("pinned", true, false)
	return d, nil
}

// assignRoleLocked promotes or demotes the target. Demoting a HOST
// requires HOST authority and the session must always keep at least one
// present HOST; granting HOST likewise requires HOST authority.
func (o *Orchestrator) assignRoleLocked(caller, target *Participant, newRole Role) (*Delta, error) {
	if !newRole.Valid() {
		return nil, newError(KindValidation, "unknown role")
	}
	if target.Status.Terminal() || target.Status == StatusInvited {
		return nil, ErrInvalidTransition
	}
	if target.Role == newRole {
		return nil, nil
	}
	if target.Role == RoleHost {
		if caller.Role != RoleHost {
			return nil, ErrNotAuthorised
		}
		if o.store.ActiveHosts() <= 1 {
			return nil, ErrInvalidTransition
		}
	}
	if newRole == RoleHost && caller.Role != RoleHost {
		return nil, ErrNotAuthorised
	}

	d := &Delta{Op: OpRoleChanged, ParticipantID: target.ID}
	d.field("role", target.Role, newRole)
	target.Role = newRole
	return d, nil
}

func (o *Orchestrator) swapSlotsLocked(target *Participant, withID string) (*Delta, error) {
	other, ok := o.store.Get(withID)
	if !ok {
		return nil, ErrUnknownTarget
	}

	slotA, seatedA := o.slots.SlotOf(target.ID)
	slotB, seatedB := o.slots.SlotOf(other.ID)
	if !seatedA || !seatedB {
		return nil, ErrInvalidTransition
	}
	if target.ID == other.ID {
		return nil, nil
	}

	o.slots.Swap(target.ID, other.ID)
	target.Slot, other.Slot = slotB, slotA

	d := &Delta{Op: OpSlotsSwapped, ParticipantID: target.ID}
	d.slot(slotA, target.ID, other.ID)
	d.slot(slotB, other.ID, target.ID)
	return d, nil
}
