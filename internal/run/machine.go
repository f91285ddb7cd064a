// Package run drives a single play-through: it asks the tower for floors, resolves door
// attempts through shield, revive and hard failure, and settles banked or failed runs into
// the progression.
//
// A Machine is not safe for concurrent use. Follow-up transitions (floor advance, same-floor
// regeneration, auto-bank) are queued and always drained before the next command runs.
package run

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/bus"
	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/tables"
	"github.com/xtding233/spiral-backend/internal/tower"
)

const (
	riskyThreshold = 30
	fortuneOdds    = 0.5

	advanceDelay  = 100 * time.Millisecond
	fortuneDelay  = 800 * time.Millisecond
	autoBankDelay = 500 * time.Millisecond
	retryDelay    = 600 * time.Millisecond

	defaultAutoBankFloor = 20
)

// Progression is the part of the aggregator a run reads from and settles into.
type Progression interface {
	Stats() progress.Stats
	AddCurrency(amount int)
	AddTotalBanked(amount int)
	UpdateBestFloor(floor int) bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithBus publishes run signals to b instead of a private bus.
func WithBus(b *bus.Bus) Option { return func(m *Machine) { m.bus = b } }

// WithCoin sets the source for fortune flips. It must not be the seeded door stream.
func WithCoin(src rng.RandomSource) Option { return func(m *Machine) { m.coin = src } }

// WithSeeds sets where StartRun takes its seed from.
func WithSeeds(next func() uint32) Option { return func(m *Machine) { m.nextSeed = next } }

func WithLogger(l zerolog.Logger) Option { return func(m *Machine) { m.logger = l } }

// Machine is the run state machine.
type Machine struct {
	progress Progression
	gen      *tower.Generator
	bus      *bus.Bus
	coin     rng.RandomSource
	nextSeed func() uint32
	logger   zerolog.Logger

	autoBankDefault int

	phase    Phase
	state    State
	floor    tower.FloorData
	settled  bool
	queue    []Transition
	draining bool
}

// NewMachine builds an idle machine over t and p.
func NewMachine(t *tables.Tables, p Progression, opts ...Option) *Machine {
	m := &Machine{
		progress:        p,
		gen:             tower.NewGenerator(t, rng.New(0)),
		bus:             bus.New(),
		coin:            rng.DefaultRNG(),
		nextSeed:        rng.TimeSeed,
		logger:          zerolog.Nop(),
		autoBankDefault: defaultAutoBankFloor,
	}
	if t != nil && t.Rules.AutoBankFloor > 0 {
		m.autoBankDefault = t.Rules.AutoBankFloor
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Bus is where the machine publishes.
func (m *Machine) Bus() *bus.Bus { return m.bus }

func (m *Machine) Phase() Phase { return m.phase }

// State returns a snapshot of the current run.
func (m *Machine) State() State {
	s := m.state
	s.Phase = m.phase.String()
	return s
}

// Floor returns the current floor. It is the zero value before the first run.
func (m *Machine) Floor() tower.FloorData { return m.floor }

// StartRun discards any previous run and starts a new one with the next seed.
func (m *Machine) StartRun() State {
	return m.StartRunWithSeed(m.nextSeed())
}

// StartRunWithSeed starts a run whose floors and door rolls are fully determined by seed.
func (m *Machine) StartRunWithSeed(seed uint32) State {
	m.queue = nil
	stats := m.progress.Stats()

	m.state = State{
		ID:            uuid.NewString(),
		Seed:          seed,
		Floor:         1,
		UnbankedScore: stats.StartingScore,
		Shield:        stats.StartingShield,
		RevivesLeft:   stats.Revives,
		RunActive:     true,
		MissionStats:  MissionStats{MaxFloor: 1},
		Stats:         stats,
	}
	if stats.AutoBank {
		m.state.AutoBankFloor = m.autoBankDefault
	}
	m.phase = PhaseActive
	m.settled = false

	m.gen.Reseed(seed)
	m.generateFloor()
	m.logger.Info().Str("run", m.state.ID).Uint32("seed", seed).Msg("run started")

	st := m.State()
	m.bus.Publish(bus.RunStarted, st)
	return st
}

// SetAutoBankFloor sets the floor at which the run banks itself. n <= 0 clears it.
func (m *Machine) SetAutoBankFloor(n int) {
	m.state.AutoBankFloor = max(n, 0)
}

// AttemptDoor rolls the door's risk once and applies the reward or resolves the failure.
func (m *Machine) AttemptDoor(doorID string) (DoorResult, error) {
	m.Drain()
	if !m.state.RunActive {
		return DoorResult{}, ErrRunNotActive
	}
	door, ok := m.floor.Door(doorID)
	if !ok {
		return DoorResult{}, ErrDoorNotFound
	}

	roll := rng.RollWithNearMiss(m.gen.Source(), door.RiskPercent)
	if roll.Failed {
		return m.handleFailure(roll.NearMiss), nil
	}
	return m.applyReward(door, roll.NearMiss), nil
}

func (m *Machine) applyReward(door tower.Door, nearMiss bool) DoorResult {
	mult := m.state.Stats.RewardMultiplier
	reward := 0

	switch door.RewardType {
	case tower.RewardFlat:
		reward = int(math.Floor(door.RewardValue * mult))
		m.state.UnbankedScore += reward
	case tower.RewardMultiply:
		next := int(math.Floor(float64(m.state.UnbankedScore) * door.RewardValue * max(1, mult)))
		reward = next - m.state.UnbankedScore
		m.state.UnbankedScore = next
	case tower.RewardShield:
		m.state.Shield++
	case tower.RewardFortune:
	}

	if door.RiskPercent >= riskyThreshold {
		m.state.MissionStats.RiskyDoorsSurvived++
	}
	if m.floor.SpecialEvent == tower.EventFortune {
		m.state.MissionStats.FortuneTriggered = true
	}

	res := DoorResult{
		Success:    true,
		NearMiss:   nearMiss,
		Reward:     reward,
		RewardType: string(door.RewardType),
		NewScore:   m.state.UnbankedScore,
		Shield:     m.state.Shield,
	}
	m.bus.Publish(bus.RewardApplied, res)
	m.advance(advanceDelay)
	return res
}

func (m *Machine) handleFailure(nearMiss bool) DoorResult {
	res := DoorResult{
		Success:  true,
		NearMiss: nearMiss,
		NewScore: m.state.UnbankedScore,
	}

	switch {
	case m.state.Shield > 0:
		m.state.Shield--
		m.state.MissionStats.UsedShield = true
		res.ShieldAbsorbed = true
		res.RewardType = ResultShieldAbsorb
		res.Shield = m.state.Shield
		m.bus.Publish(bus.ShieldAbsorbed, res)
		m.schedule("regenerate", retryDelay, m.generateFloor)
		return res

	case m.state.RevivesLeft > 0:
		m.state.RevivesLeft--
		res.Revived = true
		res.RewardType = ResultRevive
		res.Shield = m.state.Shield
		m.bus.Publish(bus.ReviveUsed, res)
		m.schedule("regenerate", retryDelay, m.generateFloor)
		return res
	}

	lost := m.state.UnbankedScore
	m.state.UnbankedScore = 0
	m.state.RunActive = false
	m.phase = PhaseFailed

	fail := &FailResult{
		LostScore:    lost,
		BankedScore:  m.state.BankedScore,
		FloorReached: m.state.Floor,
		MissionStats: m.state.MissionStats,
	}
	m.logger.Info().Str("run", m.state.ID).Int("floor", fail.FloorReached).Int("lost", lost).Msg("run failed")
	m.bus.Publish(bus.RunFailed, *fail)

	return DoorResult{NearMiss: nearMiss, Failure: fail}
}

// HandleFortune flips the coin offered on a fortune floor: a win doubles the unbanked score.
// The floor advances either way and no door roll is consumed.
func (m *Machine) HandleFortune() (FortuneResult, error) {
	m.Drain()
	if !m.state.RunActive {
		return FortuneResult{}, ErrRunNotActive
	}
	if m.floor.SpecialEvent != tower.EventFortune {
		return FortuneResult{}, ErrFortuneNotOffered
	}

	won, err := rng.Draw(fortuneOdds, m.coin)
	if err != nil {
		return FortuneResult{}, fmt.Errorf("flip fortune coin: %w", err)
	}
	res := FortuneResult{Won: won}
	if won {
		res.Bonus = m.state.UnbankedScore
		m.state.UnbankedScore *= 2
	}
	res.NewScore = m.state.UnbankedScore
	m.state.MissionStats.FortuneTriggered = true

	m.bus.Publish(bus.FortuneResult, res)
	m.advance(fortuneDelay)
	return res, nil
}

// BankAndExit secures the unbanked score and settles the run. It returns false when no run
// is active, in which case nothing changes.
func (m *Machine) BankAndExit() (BankResult, bool) {
	m.Drain()
	return m.bank()
}

func (m *Machine) bank() (BankResult, bool) {
	if !m.state.RunActive {
		return BankResult{}, false
	}
	m.state.RunActive = false
	m.phase = PhaseBanked
	m.settled = true

	m.state.BankedScore += m.state.UnbankedScore
	m.state.UnbankedScore = 0
	m.state.MissionStats.TotalBanked = m.state.BankedScore

	earned := CurrencyFor(m.state.BankedScore, m.state.Floor)
	m.progress.AddCurrency(earned)
	m.progress.AddTotalBanked(m.state.BankedScore)
	record := m.progress.UpdateBestFloor(m.state.Floor)

	res := BankResult{
		BankedScore:    m.state.BankedScore,
		FloorReached:   m.state.Floor,
		CurrencyEarned: earned,
		IsNewRecord:    record,
		MissionStats:   m.state.MissionStats,
	}
	m.logger.Info().Str("run", m.state.ID).Int("banked", res.BankedScore).Int("floor", res.FloorReached).Int("currency", earned).Msg("run banked")
	m.bus.Publish(bus.RunBanked, res)
	return res, true
}

// FinalizeFailedRun settles a failed run once. Later calls, and calls outside the failed
// phase, return false and change nothing.
func (m *Machine) FinalizeFailedRun() (SettleResult, bool) {
	m.Drain()
	if m.phase != PhaseFailed || m.settled {
		return SettleResult{}, false
	}
	m.settled = true

	res := SettleResult{
		BankedScore:  m.state.BankedScore,
		FloorReached: m.state.Floor,
	}
	if m.state.BankedScore > 0 {
		res.CurrencyEarned = CurrencyFor(m.state.BankedScore, m.state.Floor)
		m.progress.AddCurrency(res.CurrencyEarned)
		m.progress.AddTotalBanked(m.state.BankedScore)
	}
	res.IsNewRecord = m.progress.UpdateBestFloor(m.state.Floor)
	return res, true
}

func (m *Machine) advance(delay time.Duration) {
	m.state.Floor++
	m.state.MissionStats.MaxFloor = max(m.state.MissionStats.MaxFloor, m.state.Floor)
	m.schedule("advance", delay, func() {
		m.bus.Publish(bus.FloorComplete, FloorComplete{Floor: m.state.Floor, PreviousFloor: m.state.Floor - 1})
		m.generateFloor()
	})
}

// generateFloor replaces the current floor. On or past the auto-bank floor the doors are
// withheld and a bank is queued instead.
func (m *Machine) generateFloor() {
	m.floor = m.gen.FloorData(m.state.Floor, m.state.Stats)
	if m.state.AutoBankFloor > 0 && m.state.Floor >= m.state.AutoBankFloor {
		m.floor.Doors = nil
		m.schedule("auto-bank", autoBankDelay, func() { m.bank() })
		return
	}
	m.bus.Publish(bus.FloorGenerated, m.floor)
}
