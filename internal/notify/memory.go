package notify

import (
	"context"
	"sync"

	"github.com/marksapp/marks/internal/logger"
)

const subscriberBuffer = 64

// MemoryBroker is the in-process Broker used when marks runs as a single
// instance. Publish never blocks: a subscriber that falls more than
// subscriberBuffer events behind loses events, which the feed contract
// permits. The client self-heals on its next full reload.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[string]map[*memorySub]struct{}
	log  logger.Logger
}

func NewMemoryBroker(log logger.Logger) *MemoryBroker {
	return &MemoryBroker{
		subs: make(map[string]map[*memorySub]struct{}),
		log:  log,
	}
}

type memorySub struct {
	broker  *MemoryBroker
	ownerID string
	ch      chan Event
	once    sync.Once
}

func (s *memorySub) Events() <-chan Event { return s.ch }

func (s *memorySub) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.ch)
	})
}

func (b *MemoryBroker) Publish(_ context.Context, ownerID string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[ownerID] {
		select {
		case sub.ch <- ev:
		default:
			b.log.Warn("notify: dropping event for slow subscriber",
				logger.String("owner_id", ownerID),
				logger.String("kind", ev.Kind))
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, ownerID string) (Subscription, error) {
	sub := &memorySub{broker: b, ownerID: ownerID, ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[*memorySub]struct{})
	}
	b.subs[ownerID][sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBroker) remove(sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[sub.ownerID]
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.ownerID)
	}
}
