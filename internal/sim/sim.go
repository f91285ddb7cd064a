// Package sim plays whole runs with a fixed strategy to estimate how far and how rich a
// player climbs. Every trial is seeded, so a report is reproducible from its base seed.
package sim

import (
	"errors"

	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/run"
	"github.com/xtding233/spiral-backend/internal/tables"
	"github.com/xtding233/spiral-backend/internal/tower"
)

// DoorChoice says which door the strategy opens on an ordinary floor.
type DoorChoice string

const (
	DoorSafe  DoorChoice = "safe"  // the low-risk flat door
	DoorRisky DoorChoice = "risky" // the high-risk multiply door
)

const (
	defaultMaxFloor = 500
	maxTrials       = 100000
	coinSalt        = 0x9E3779B9
)

var ErrInvalidParams = errors.New("sim: invalid parameters")

// Params describes the strategy and the upgrades it plays with.
type Params struct {
	BankAt   int            `json:"bankAt"`   // bank once this floor is reached
	Door     DoorChoice     `json:"door"`     // default DoorSafe
	Stats    progress.Stats `json:"stats"`    // zero value means no upgrades
	MaxFloor int            `json:"maxFloor"` // hard stop; default 500
}

// Report summarizes the trials.
type Report struct {
	Trials   int     `json:"trials"`
	Seed     uint32  `json:"seed"`
	Floors   Stats   `json:"floors"`
	Banked   Stats   `json:"banked"`
	Currency Stats   `json:"currency"`
	FailRate float64 `json:"failRate"`
}

// fixedStats is a progression that never changes and discards credits.
type fixedStats struct{ stats progress.Stats }

func (f fixedStats) Stats() progress.Stats  { return f.stats }
func (fixedStats) AddCurrency(int)          {}
func (fixedStats) AddTotalBanked(int)       {}
func (fixedStats) UpdateBestFloor(int) bool { return false }

func (p Params) normalize() (Params, error) {
	if p.BankAt < 1 {
		return p, ErrInvalidParams
	}
	if p.Door == "" {
		p.Door = DoorSafe
	}
	if p.Door != DoorSafe && p.Door != DoorRisky {
		return p, ErrInvalidParams
	}
	if p.Stats.RewardMultiplier == 0 {
		p.Stats.RewardMultiplier = 1
	}
	if p.MaxFloor <= 0 {
		p.MaxFloor = defaultMaxFloor
	}
	return p, nil
}

type outcome struct {
	floor    int
	banked   int
	currency int
	failed   bool
}

// playOne runs a single seeded trial to its end.
func playOne(t *tables.Tables, p Params, seed uint32) outcome {
	m := run.NewMachine(t, fixedStats{p.Stats}, run.WithCoin(rng.New(seed^coinSalt)))
	m.StartRunWithSeed(seed)

	for {
		m.Drain()
		st := m.State()
		if !st.RunActive {
			break
		}
		if st.Floor >= p.BankAt || st.Floor >= p.MaxFloor {
			m.BankAndExit()
			break
		}
		fd := m.Floor()
		if fd.SpecialEvent == tower.EventFortune {
			m.HandleFortune()
			continue
		}
		m.AttemptDoor(pickDoor(fd, p.Door))
	}

	st := m.State()
	out := outcome{floor: st.Floor, banked: st.BankedScore, failed: m.Phase() == run.PhaseFailed}
	if !out.failed {
		out.currency = run.CurrencyFor(st.BankedScore, st.Floor)
	}
	return out
}

func pickDoor(fd tower.FloorData, choice DoorChoice) string {
	if choice == DoorRisky {
		for _, d := range fd.Doors {
			if d.IsHighRisk {
				return d.ID
			}
		}
	}
	return fd.Doors[0].ID
}

// Run plays trials runs seeded seed, seed+1, ... and summarizes them.
func Run(t *tables.Tables, p Params, trials int, seed uint32) (Report, error) {
	if trials <= 0 {
		return Report{}, nil
	}
	if trials > maxTrials {
		return Report{}, ErrInvalidParams
	}
	p, err := p.normalize()
	if err != nil {
		return Report{}, err
	}

	floors := make([]int, trials)
	banked := make([]int, trials)
	currency := make([]int, trials)
	failed := 0
	for i := 0; i < trials; i++ {
		o := playOne(t, p, seed+uint32(i))
		floors[i], banked[i], currency[i] = o.floor, o.banked, o.currency
		if o.failed {
			failed++
		}
	}

	return Report{
		Trials:   trials,
		Seed:     seed,
		Floors:   summarize(floors),
		Banked:   summarize(banked),
		Currency: summarize(currency),
		FailRate: float64(failed) / float64(trials),
	}, nil
}
