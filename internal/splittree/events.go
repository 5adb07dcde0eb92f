package splittree

// EventKind names a structural change to the tree.
type EventKind uint8

const (
	EventGroupAdded EventKind = iota + 1
	EventGroupRemoved
	EventSplitAdded
	EventSplitRemoved
	EventRatiosChanged
	EventActiveGroupChanged
)

func (k EventKind) String() string {
	switch k {
	case EventGroupAdded:
		return "group_added"
	case EventGroupRemoved:
		return "group_removed"
	case EventSplitAdded:
		return "split_added"
	case EventSplitRemoved:
		return "split_removed"
	case EventRatiosChanged:
		return "ratios_changed"
	case EventActiveGroupChanged:
		return "active_group_changed"
	default:
		return "unknown"
	}
}

type subscriber struct {
	id uint64
	fn func(Event)
}

type Event struct {
	Kind    EventKind
	Content Content
}

// Subscribe registers fn for every event and returns an unsubscribe func.
// Events are delivered synchronously on the mutating goroutine.
func (t *Tree) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	t.nextSub++
	id := t.nextSub
	t.subscribers = append(t.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range t.subscribers {
			if sub.id == id {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				return
			}
		}
	}
}

// OnDispose registers a hook that runs once when c leaves the tree for good.
func (t *Tree) OnDispose(c Content, fn func()) {
	if fn == nil {
		return
	}
	t.disposers[c] = append(t.disposers[c], fn)
}

func (t *Tree) emit(kind EventKind, c Content) {
	ev := Event{Kind: kind, Content: c}
	for _, sub := range t.subscribers {
		sub.fn(ev)
	}
}

// dispose drops c from its arena and runs its hooks. Hooks are removed
// before they run so a second dispose is a no-op.
func (t *Tree) dispose(c Content) {
	hooks := t.disposers[c]
	delete(t.disposers, c)
	delete(t.parent, c)
	switch c.Kind {
	case ContentGroup:
		if _, ok := t.groups[c.GroupID()]; !ok {
			return
		}
		delete(t.groups, c.GroupID())
		t.emit(EventGroupRemoved, c)
	case ContentSplit:
		if _, ok := t.splits[c.SplitID()]; !ok {
			return
		}
		delete(t.splits, c.SplitID())
		t.emit(EventSplitRemoved, c)
	}
	for _, fn := range hooks {
		fn()
	}
}

// Close detaches every group and split from the root, then disposes them
// leaves first, so no hook sees a node that is still reachable. Subscribers
// are dropped. The tree must not be used afterwards.
func (t *Tree) Close() {
	var order []Content
	t.walk(t.root, func(c Content) { order = append(order, c) })
	for _, n := range t.splits {
		n.Children = nil
	}
	t.active = 0
	for i := len(order) - 1; i >= 0; i-- {
		t.dispose(order[i])
	}
	t.dispose(SplitContent(t.root))
	t.subscribers = nil
}
