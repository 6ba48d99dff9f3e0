package events

import (
	"sync"
	"sync/atomic"
	"time"
)

type subscription struct {
	id      SubscriptionID
	handler EventHandler
}

// Bus is the in-process EventBus. One goroutine dispatches queued events in
// publish order, so a handler never runs concurrently with itself and sees
// env.ready before the episode events that follow it.
type Bus struct {
	mu     sync.RWMutex
	byType map[EventType][]subscription
	owner  map[SubscriptionID]EventType
	lastID SubscriptionID

	queue    chan Event
	done     chan struct{}
	stopOnce sync.Once
	drained  sync.WaitGroup

	dropped  atomic.Int64
	panicked atomic.Int64
}

// NewEventBus starts the dispatcher. bufferSize bounds how far publishers
// can run ahead of handlers before Publish blocks.
func NewEventBus(bufferSize int) *Bus {
	b := &Bus{
		byType: make(map[EventType][]subscription),
		owner:  make(map[SubscriptionID]EventType),
		queue:  make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	b.drained.Add(1)
	go b.run()
	return b
}

func (b *Bus) Subscribe(eventType EventType, handler EventHandler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	id := b.lastID
	b.byType[eventType] = append(b.byType[eventType], subscription{id: id, handler: handler})
	b.owner[id] = eventType
	return id
}

// SubscribeAll registers handler for every type in AllTypes.
func (b *Bus) SubscribeAll(handler EventHandler) []SubscriptionID {
	ids := make([]SubscriptionID, len(AllTypes))
	for i, t := range AllTypes {
		ids[i] = b.Subscribe(t, handler)
	}
	return ids
}

func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	eventType, ok := b.owner[id]
	if !ok {
		return
	}
	delete(b.owner, id)

	subs := b.byType[eventType]
	kept := subs[:0]
	for _, s := range subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	b.byType[eventType] = kept
}

// Publish stamps the event if needed and queues it. After Stop the event is
// counted as dropped instead.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case <-b.done:
		b.dropped.Add(1)
		return
	default:
	}

	select {
	case b.queue <- event:
	case <-b.done:
		b.dropped.Add(1)
	}
}

// Stop blocks until every event queued before it has been dispatched.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
	b.drained.Wait()
}

func (b *Bus) run() {
	defer b.drained.Done()
	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		case <-b.done:
			for len(b.queue) > 0 {
				b.dispatch(<-b.queue)
			}
			return
		}
	}
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.byType[event.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s.handler, event)
	}
}

func (b *Bus) call(handler EventHandler, event Event) {
	defer func() {
		if recover() != nil {
			b.panicked.Add(1)
		}
	}()
	handler(event)
}

// Dropped counts events published after Stop.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// HandlerPanics counts recovered handler panics.
func (b *Bus) HandlerPanics() int64 {
	return b.panicked.Load()
}
