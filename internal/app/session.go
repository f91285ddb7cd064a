package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/bus"
	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/tower"
)

const maxEvents = 256

// Outcome kinds.
const (
	OutcomeBanked = "banked"
	OutcomeFailed = "failed"
)

// Event is one published signal as recorded by a session.
type Event struct {
	Seq     int        `json:"seq"`
	Signal  bus.Signal `json:"signal"`
	Payload any        `json:"payload"`
}

// Outcome is everything settled when a run ends.
type Outcome struct {
	RunID         string             `json:"runId"`
	Kind          string             `json:"kind"`
	Bank          *run.BankResult    `json:"bank,omitempty"`
	Failure       *run.FailResult    `json:"failure,omitempty"`
	Settlement    *run.SettleResult  `json:"settlement,omitempty"`
	Achievements  []string           `json:"achievements,omitempty"`
	Missions      []progress.Mission `json:"missions,omitempty"`
	MissionReward int                `json:"missionReward,omitempty"`
}

// View is what a client needs to draw the run.
type View struct {
	State   run.State        `json:"state"`
	Floor   *tower.FloorData `json:"floor,omitempty"`
	Pending []run.Transition `json:"pending"`
	Last    *Outcome         `json:"lastOutcome,omitempty"`
}

// Session serializes presentation commands against the current run. A Context serves one
// session at a time; its machine publishes on the shared bus.
type Session struct {
	ctx    *Context
	logger zerolog.Logger

	mu        sync.Mutex
	machine   *run.Machine
	terminal  any
	last      *Outcome
	events    []Event
	seq       int
	unsubs    []func()
	stopTimer func() bool
	gen       int
	closed    bool
}

// NewSession subscribes a session to every run signal. Close releases the subscriptions.
func (c *Context) NewSession() *Session {
	s := &Session{ctx: c, logger: c.Component("session")}
	for _, sig := range bus.Signals {
		s.unsubs = append(s.unsubs, c.Bus.Subscribe(sig, func(p any) { s.observe(sig, p) }))
	}
	return s
}

// observe runs inside machine calls, which always hold s.mu.
func (s *Session) observe(sig bus.Signal, payload any) {
	s.seq++
	s.events = append(s.events, Event{Seq: s.seq, Signal: sig, Payload: payload})
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	if sig == bus.RunBanked || sig == bus.RunFailed {
		s.terminal = payload
	}
}

// Close stops pending timers and unsubscribes from the bus.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stop()
	for _, un := range s.unsubs {
		un()
	}
	s.unsubs = nil
}

// StartRun replaces any current run. A nil seed lets the machine pick one.
func (s *Session) StartRun(seed *uint32) run.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	s.machine = s.ctx.NewMachine()
	s.events, s.terminal, s.last = nil, nil, nil
	if seed != nil {
		s.machine.StartRunWithSeed(*seed)
	} else {
		s.machine.StartRun()
	}
	s.afterCommand()
	return s.machine.State()
}

func (s *Session) AttemptDoor(doorID string) (run.DoorResult, *Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return run.DoorResult{}, nil, run.ErrRunNotActive
	}
	s.stop()
	res, err := s.machine.AttemptDoor(doorID)
	return res, s.afterCommand(), err
}

func (s *Session) HandleFortune() (run.FortuneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return run.FortuneResult{}, run.ErrRunNotActive
	}
	s.stop()
	res, err := s.machine.HandleFortune()
	s.afterCommand()
	return res, err
}

// BankAndExit banks the run and returns its settlement. A queued auto-bank that fires while
// the queue drains settles the run instead. It returns nil when no run ended.
func (s *Session) BankAndExit() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return nil
	}
	s.stop()
	s.machine.BankAndExit()
	return s.afterCommand()
}

func (s *Session) SetAutoBankFloor(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil || !s.machine.State().RunActive {
		return run.ErrRunNotActive
	}
	s.machine.SetAutoBankFloor(n)
	return nil
}

// Drain runs every queued transition now.
func (s *Session) Drain() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return nil
	}
	s.stop()
	s.machine.Drain()
	return s.settle()
}

// View snapshots the run. Before the first run the phase is idle.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine == nil {
		return View{State: run.State{Phase: run.PhaseIdle.String()}, Pending: []run.Transition{}}
	}
	v := View{State: s.machine.State(), Pending: s.machine.Pending(), Last: s.last}
	if s.machine.Phase() == run.PhaseActive {
		fd := s.machine.Floor()
		v.Floor = &fd
	}
	return v
}

// Events returns recorded events with Seq greater than since.
func (s *Session) Events(since int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Event{}
	for _, e := range s.events {
		if e.Seq > since {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) afterCommand() *Outcome {
	out := s.settle()
	s.pump()
	return out
}

// settle credits achievements and missions for a run that just ended.
func (s *Session) settle() *Outcome {
	if s.terminal == nil {
		return nil
	}
	t := s.terminal
	s.terminal = nil

	out := &Outcome{RunID: s.machine.State().ID}
	var (
		ms            run.MissionStats
		floor, banked int
	)
	switch r := t.(type) {
	case run.BankResult:
		out.Kind, out.Bank = OutcomeBanked, &r
		ms, floor, banked = r.MissionStats, r.FloorReached, r.BankedScore
	case run.FailResult:
		out.Kind, out.Failure = OutcomeFailed, &r
		ms, floor, banked = r.MissionStats, r.FloorReached, r.BankedScore
		if settled, ok := s.machine.FinalizeFailedRun(); ok {
			out.Settlement = &settled
		}
	default:
		return nil
	}

	p := s.ctx.Progress
	out.Achievements = p.CheckAchievements(floor, banked)
	if missions := p.DailyMissions(); len(missions) > 0 {
		updated, reward := run.EvaluateMissions(missions, ms)
		if reward > 0 {
			p.AddCurrency(reward)
		}
		p.SaveMissions(updated)
		out.Missions, out.MissionReward = updated, reward
	}
	s.last = out
	s.logger.Info().
		Str("run", out.RunID).
		Str("kind", out.Kind).
		Int("floor", floor).
		Strs("achievements", out.Achievements).
		Int("mission_reward", out.MissionReward).
		Msg("run settled")
	return out
}

// pump arms a timer for the oldest queued transition.
func (s *Session) pump() {
	if s.ctx.manual || s.closed || s.machine == nil {
		return
	}
	pending := s.machine.Pending()
	if len(pending) == 0 {
		return
	}
	gen := s.gen
	s.stopTimer = transitionTimer(pending[0].Delay, func() { s.fire(gen) })
}

func (s *Session) fire(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}
	s.stopTimer = nil
	s.machine.Step()
	s.settle()
	s.pump()
}

// stop disarms the timer and invalidates callbacks already in flight.
func (s *Session) stop() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.gen++
}
