package cache

// lruList is an intrusive doubly-linked list of entries, most recently used
// at the front. It is not thread-safe; the owning shard's lock guards it.
type lruList[K comparable, V any] struct {
	head, tail *entry[K, V]
	len        int
}

func (l *lruList[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	} else {
		l.tail = e
	}
	l.head = e
	l.len++
}

func (l *lruList[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.len--
}

func (l *lruList[K, V]) moveToFront(e *entry[K, V]) {
	if e == l.head {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

// oldest returns the least recently used entry, or nil.
func (l *lruList[K, V]) oldest() *entry[K, V] { return l.tail }

func (l *lruList[K, V]) clear() {
	l.head, l.tail, l.len = nil, nil, 0
}
