package dom

// Subscription is the handle returned when registering an observer or listener.
type Subscription struct {
	cancel func()
}

// Disconnect stops delivery. It is safe to call more than once and on a nil
// subscription.
func (s *Subscription) Disconnect() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

// Active reports whether the subscription still receives callbacks.
func (s *Subscription) Active() bool {
	return s != nil && s.cancel != nil
}

// ClassCallback receives the element and its class list before the change.
type ClassCallback func(e *Element, old []string)

// ResizeCallback receives the element whose size changed.
type ResizeCallback func(e *Element)

// ScrollCallback receives the scrolled element.
type ScrollCallback func(e *Element)

// WindowCallback receives the new window size.
type WindowCallback func(width, height float64)

type entry[T any] struct {
	fn T
}

// hub is an ordered set of callbacks. Iteration works on a snapshot so
// callbacks may subscribe or unsubscribe while being delivered.
type hub[T any] struct {
	entries []*entry[T]
}

func (h *hub[T]) add(fn T) *Subscription {
	e := &entry[T]{fn: fn}
	h.entries = append(h.entries, e)
	return &Subscription{cancel: func() { h.remove(e) }}
}

func (h *hub[T]) remove(e *entry[T]) {
	for i, existing := range h.entries {
		if existing == e {
			h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *hub[T]) contains(e *entry[T]) bool {
	for _, existing := range h.entries {
		if existing == e {
			return true
		}
	}
	return false
}

func (h *hub[T]) each(fn func(T)) {
	snapshot := make([]*entry[T], len(h.entries))
	copy(snapshot, h.entries)
	for _, e := range snapshot {
		// Skip entries removed by an earlier callback in this round.
		if !h.contains(e) {
			continue
		}
		fn(e.fn)
	}
}

func (h *hub[T]) len() int { return len(h.entries) }

// resizeTarget tracks the last size reported for an observed element.
type resizeTarget struct {
	element *Element
	fn      ResizeCallback
	width   float64
	height  float64
}

// ObserveClass calls fn after every change to e's class list.
func (d *Document) ObserveClass(e *Element, fn ClassCallback) *Subscription {
	h, ok := d.classObservers[e]
	if !ok {
		h = &hub[ClassCallback]{}
		d.classObservers[e] = h
	}
	sub := h.add(fn)
	cancel := sub.cancel
	sub.cancel = func() {
		cancel()
		if h.len() == 0 {
			delete(d.classObservers, e)
		}
	}
	return sub
}

// ObserveResize calls fn whenever e's rendered size differs from the size seen
// at the previous notification. The size at registration is the baseline.
func (d *Document) ObserveResize(e *Element, fn ResizeCallback) *Subscription {
	size := e.Size()
	target := &resizeTarget{element: e, fn: fn, width: size.Width, height: size.Height}
	return d.resizeObservers.add(target)
}

// ListenScroll calls fn whenever e is scrolled.
func (d *Document) ListenScroll(e *Element, fn ScrollCallback) *Subscription {
	h, ok := d.scrollListeners[e]
	if !ok {
		h = &hub[ScrollCallback]{}
		d.scrollListeners[e] = h
	}
	sub := h.add(fn)
	cancel := sub.cancel
	sub.cancel = func() {
		cancel()
		if h.len() == 0 {
			delete(d.scrollListeners, e)
		}
	}
	return sub
}

// ListenWindowResize calls fn whenever the window size changes.
func (d *Document) ListenWindowResize(fn WindowCallback) *Subscription {
	return d.windowListeners.add(fn)
}

// ObserverCount returns the number of live observers and listeners. It is
// meant for diagnostics and tests.
func (d *Document) ObserverCount() int {
	n := d.resizeObservers.len() + d.windowListeners.len()
	for _, h := range d.classObservers {
		n += h.len()
	}
	for _, h := range d.scrollListeners {
		n += h.len()
	}
	return n
}

func (d *Document) notifyClass(e *Element, old []string) {
	h, ok := d.classObservers[e]
	if !ok {
		return
	}
	h.each(func(fn ClassCallback) { fn(e, old) })
}

func (d *Document) notifyScroll(e *Element) {
	h, ok := d.scrollListeners[e]
	if !ok {
		return
	}
	h.each(func(fn ScrollCallback) { fn(e) })
}

// flushResize delivers pending resize notifications. Callbacks that resize
// further elements trigger another round, up to the loop limit.
func (d *Document) flushResize() {
	if d.flushing {
		d.pending = true
		return
	}
	d.flushing = true
	defer func() { d.flushing = false }()

	for round := 0; round < d.resizeLoopLimit; round++ {
		d.pending = false
		changed := false
		d.resizeObservers.each(func(t *resizeTarget) {
			size := t.element.Size()
			if size.Width == t.width && size.Height == t.height {
				return
			}
			t.width, t.height = size.Width, size.Height
			changed = true
			t.fn(t.element)
		})
		if !changed && !d.pending {
			return
		}
	}
	d.logger.Warn("resize loop limit exceeded", "limit", d.resizeLoopLimit)
}
