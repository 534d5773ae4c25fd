package util

type Node[T any] struct {
	Data T
	Prev *Node[T]
	Next *Node[T]
}

func (n *Node[T]) insertAfter(data T) *Node[T] {
	newNode := Node[T]{
		Data: data,
		Next: n.Next,
		Prev: n,
	}

	if n.Next != nil {
		n.Next.Prev = &newNode
	}

	n.Next = &newNode

	return &newNode
}

// DoublyLinkedList keeps insertion order and supports O(1) removal of an
// arbitrary node, which plain slices make awkward for queue semantics.
type DoublyLinkedList[T any] struct {
	first *Node[T]
	last  *Node[T]
	size  int
}

func (l *DoublyLinkedList[T]) Size() int {
	return l.size
}

func (l *DoublyLinkedList[T]) PeekFirst() *T {
	if l.first == nil {
		return nil
	}
	return &l.first.Data
}

func (l *DoublyLinkedList[T]) PopFirst() *T {
	if l.first == nil {
		return nil
	}

	first := l.first.Data
	if l.first.Next != nil {
		l.first.Next.Prev = nil
		l.first = l.first.Next
	} else {
		l.first = nil
		l.last = nil
	}

	l.size--
	return &first
}

// PushEnd appends data and returns the new node so callers can keep a
// handle for later removal.
func (l *DoublyLinkedList[T]) PushEnd(data T) *Node[T] {
	l.size++
	if l.last != nil {
		l.last = l.last.insertAfter(data)
	} else {
		newNode := Node[T]{Data: data}
		l.first = &newNode
		l.last = &newNode
	}
	return l.last
}

// RemoveNode unlinks the node from the list. The node must belong to
// this list.
func (l *DoublyLinkedList[T]) RemoveNode(n *Node[T]) {
	if n.Prev != nil {
		n.Prev.Next = n.Next
	} else {
		l.first = n.Next
	}

	if n.Next != nil {
		n.Next.Prev = n.Prev
	} else {
		l.last = n.Prev
	}

	n.Prev = nil
	n.Next = nil
	l.size--
}

func (l *DoublyLinkedList[T]) ToSlice() []T {
	slice := make([]T, 0, l.size)
	current := l.first
	for current != nil {
		slice = append(slice, current.Data)
		current = current.Next
	}
	return slice
}
