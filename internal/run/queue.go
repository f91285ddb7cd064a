package run

import "time"

func (m *Machine) schedule(name string, delay time.Duration, fn func()) {
	m.queue = append(m.queue, Transition{Name: name, Delay: delay, run: fn})
}

// Pending lists queued transitions in the order they will run.
func (m *Machine) Pending() []Transition {
	out := make([]Transition, len(m.queue))
	copy(out, m.queue)
	return out
}

// Step runs the oldest queued transition. It reports false when the queue was empty.
func (m *Machine) Step() bool {
	if len(m.queue) == 0 {
		return false
	}
	t := m.queue[0]
	m.queue = m.queue[1:]
	t.run()
	return true
}

// Drain runs queued transitions, including any they enqueue, until none remain.
func (m *Machine) Drain() {
	if m.draining {
		return
	}
	m.draining = true
	defer func() { m.draining = false }()
	for m.Step() {
	}
}
