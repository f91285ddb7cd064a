// Package bus is the message bus between the run machine and the presentation layer.
// It is passed explicitly; there is no package-level instance.
package bus

import "sync"

// Signal names an event.
type Signal string

const (
	RunStarted     Signal = "run-started"
	FloorGenerated Signal = "floor-generated"
	RewardApplied  Signal = "reward-applied"
	ShieldAbsorbed Signal = "shield-absorbed"
	ReviveUsed     Signal = "revive-used"
	FortuneResult  Signal = "fortune-result"
	FloorComplete  Signal = "floor-complete"
	RunFailed      Signal = "run-failed"
	RunBanked      Signal = "run-banked"
)

// Signals lists every signal the run machine publishes.
var Signals = []Signal{
	RunStarted, FloorGenerated, RewardApplied, ShieldAbsorbed, ReviveUsed,
	FortuneResult, FloorComplete, RunFailed, RunBanked,
}

// Handler receives the payload published with a signal.
type Handler func(payload any)

type subscription struct {
	id int
	fn Handler
}

// Bus fans published payloads out to subscribers in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Signal][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[Signal][]subscription)}
}

// Subscribe registers fn and returns the function that removes it.
func (b *Bus) Subscribe(sig Signal, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[sig] = append(b.subs[sig], subscription{id: id, fn: fn})
	var once sync.Once
	return func() { once.Do(func() { b.remove(sig, id) }) }
}

// Once delivers at most one payload to fn.
func (b *Bus) Once(sig Signal, fn Handler) (unsubscribe func()) {
	var (
		unsub func()
		fired sync.Once
	)
	unsub = b.Subscribe(sig, func(p any) {
		fired.Do(func() {
			unsub()
			fn(p)
		})
	})
	return unsub
}

func (b *Bus) remove(sig Signal, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[sig]
	for i, s := range list {
		if s.id == id {
			b.subs[sig] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Publish calls every handler of sig and reports whether any was registered.
// Handlers may subscribe or unsubscribe while being called.
func (b *Bus) Publish(sig Signal, payload any) bool {
	b.mu.Lock()
	list := append([]subscription(nil), b.subs[sig]...)
	b.mu.Unlock()
	for _, s := range list {
		s.fn(payload)
	}
	return len(list) > 0
}

// Count is the number of handlers registered for sig.
func (b *Bus) Count(sig Signal) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sig])
}

// Reset drops every subscription.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[Signal][]subscription)
}
