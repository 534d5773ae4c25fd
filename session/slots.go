package session

// SlotTable maps participants to a fixed ordered set of on-air slots.
// Slots are 1-based toward callers; internally seat i holds slot i+1.
// Seating is lowest-index-first so UI layout stays stable.
type SlotTable struct {
	seats []string
}

func NewSlotTable(n int) *SlotTable {
	return &SlotTable{seats: make([]string, n)}
}

func (t *SlotTable) Size() int {
	return len(t.seats)
}

// TrySeat places the participant in the lowest-indexed empty slot and
// returns that slot number, or false if every slot is occupied.
func (t *SlotTable) TrySeat(pid string) (int, bool) {
	for i, occupant := range t.seats {
		if occupant == "" {
			t.seats[i] = pid
			return i + 1, true
		}
	}
	return 0, false
}

// Vacate removes the participant from its slot and returns the freed
// slot number, or false if the participant is not seated.
func (t *SlotTable) Vacate(pid string) (int, bool) {
	for i, occupant := range t.seats {
		if occupant == pid {
			t.seats[i] = ""
			return i + 1, true
		}
	}
	return 0, false
}

// SlotOf returns the slot currently held by the participant.
func (t *SlotTable) SlotOf(pid string) (int, bool) {
	for i, occupant := range t.seats {
		if occupant == pid {
			return i + 1, true
		}
	}
	return 0, false
}

// Swap exchanges the slots of two seated participants.
func (t *SlotTable) Swap(a, b string) bool {
	slotA, okA := t.SlotOf(a)
	slotB, okB := t.SlotOf(b)
	if !okA || !okB {
		return false
	}
	t.seats[slotA-1], t.seats[slotB-1] = b, a
	return true
}

// Occupied counts seated participants.
func (t *SlotTable) Occupied() int {
	count := 0
	for _, occupant := range t.seats {
		if occupant != "" {
			count++
		}
	}
	return count
}

// Seats returns a copy of the table; index 0 corresponds to slot 1 and
// empty slots are empty strings.
func (t *SlotTable) Seats() []string {
	seats := make([]string, len(t.seats))
	copy(seats, t.seats)
	return seats
}
