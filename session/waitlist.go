package session

import (
	"github.com/atlantiplex/stage-api/util"
)

// Waitlist is the strict FIFO of admitted-but-unseated participants.
// A max of 0 means unbounded.
type Waitlist struct {
	order *util.DoublyLinkedList[string]
	nodes map[string]*util.Node[string]
	max   int
}

func NewWaitlist(max int) *Waitlist {
	return &Waitlist{
		order: &util.DoublyLinkedList[string]{},
		nodes: make(map[string]*util.Node[string]),
		max:   max,
	}
}

func (w *Waitlist) Len() int {
	return w.order.Size()
}

// Full reports whether another enqueue would exceed the bound.
func (w *Waitlist) Full() bool {
	return w.max > 0 && w.order.Size() >= w.max
}

func (w *Waitlist) Contains(pid string) bool {
	_, ok := w.nodes[pid]
	return ok
}

func (w *Waitlist) Enqueue(pid string) error {
	if w.Full() {
		return ErrCapacityExceeded
	}
	if _, ok := w.nodes[pid]; ok {
		return ErrInvalidTransition
	}
	w.nodes[pid] = w.order.PushEnd(pid)
	return nil
}

// PopHead removes and returns the head of the queue.
func (w *Waitlist) PopHead() (string, bool) {
	head := w.order.PopFirst()
	if head == nil {
		return "", false
	}
	delete(w.nodes, *head)
	return *head, true
}

// Remove drops the participant from wherever it sits in the queue.
func (w *Waitlist) Remove(pid string) bool {
	node, ok := w.nodes[pid]
	if !ok {
		return false
	}
	w.order.RemoveNode(node)
	delete(w.nodes, pid)
	return true
}

// ToSlice returns queue membership in admission order.
func (w *Waitlist) ToSlice() []string {
	return w.order.ToSlice()
}
