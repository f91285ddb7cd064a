package tower

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/tables"
)

const (
	stabilityEvery   = 10
	firstEventFloor  = 3
	eventIntervalMin = 7
	eventIntervalMax = 15
	riskFloor        = 1
	chaosRewardScale = 1.5
	doubleMultiply   = 1.5
	fortuneRisk      = 50
)

// Generator produces floors from a seeded source. It remembers when the last special event
// fired and how many floors must pass before the next one.
type Generator struct {
	tables *tables.Tables
	src    *rng.Mulberry32

	lastEventFloor int
	nextEventIn    int
}

// NewGenerator uses src, or a time-seeded source when src is nil.
func NewGenerator(t *tables.Tables, src *rng.Mulberry32) *Generator {
	if src == nil {
		src = rng.NewFromTime()
	}
	g := &Generator{tables: t, src: src}
	g.nextEventIn = g.eventInterval()
	return g
}

// Reseed restarts the sequence and the special event schedule.
func (g *Generator) Reseed(seed uint32) {
	g.src.Reseed(seed)
	g.lastEventFloor = 0
	g.nextEventIn = g.eventInterval()
}

// Source is the seeded stream shared with door resolution.
func (g *Generator) Source() *rng.Mulberry32 { return g.src }

func (g *Generator) eventInterval() int {
	return rng.Int(g.src, eventIntervalMin, eventIntervalMax)
}

// IsStabilityFloor reports every tenth floor.
func IsStabilityFloor(floor int) bool { return floor%stabilityEvery == 0 }

func (g *Generator) shouldTriggerEvent(floor int) bool {
	if IsStabilityFloor(floor) || floor < firstEventFloor {
		return false
	}
	return floor-g.lastEventFloor >= g.nextEventIn
}

func (g *Generator) drawEvent(floor int) Event {
	g.lastEventFloor = floor
	g.nextEventIn = g.eventInterval()
	return rng.Pick(g.src, Events)
}

// AdjustRisk applies the upgrade risk reduction. Upgrades never push risk below 1%.
func AdjustRisk(baseRisk int, stats progress.Stats) int {
	adjusted := math.Round(float64(baseRisk) - stats.RiskReduction*100)
	return int(math.Min(100, math.Max(riskFloor, adjusted)))
}

// FloorData generates floor n.
func (g *Generator) FloorData(n int, stats progress.Stats) FloorData {
	tier := g.tables.TierFor(n)
	fd := FloorData{
		FloorNumber:      n,
		Tier:             tier.Name,
		BgColor:          tier.BgColor,
		AccentColor:      tier.AccentColor,
		IsStabilityFloor: IsStabilityFloor(n),
	}

	if fd.IsStabilityFloor {
		reward := math.Floor(rng.Between(g.src, tier.StabilityRewardMin, tier.StabilityRewardMax))
		fd.Doors = []Door{{
			ID:          "A",
			Label:       flatLabel(reward, false),
			RewardType:  RewardFlat,
			RewardValue: reward,
			IsStability: true,
		}}
		return fd
	}

	if g.shouldTriggerEvent(n) {
		fd.SpecialEvent = g.drawEvent(n)
	}

	switch fd.SpecialEvent {
	case EventShield:
		fd.Doors = []Door{{ID: "A", Label: "+SHIELD", RewardType: RewardShield, RewardValue: 1}}
	case EventFortune:
		fd.Doors = []Door{{ID: "A", Label: "FLIP", RewardType: RewardFortune, RewardValue: 2, RiskPercent: fortuneRisk}}
	default:
		fd.Doors = g.doors(tier, stats, fd.SpecialEvent)
	}
	return fd
}

// doors builds two doors, or three on a chaos floor, drawing risk then reward for each.
func (g *Generator) doors(tier tables.Tier, stats progress.Stats, ev Event) []Door {
	ids := []string{"A", "B"}
	if ev == EventChaos {
		ids = []string{"A", "B", "C"}
	}
	double := ev == EventDouble

	doors := make([]Door, 0, len(ids))
	for i, id := range ids {
		d := Door{ID: id, IsHighRisk: i == 1, RiskHidden: ev == EventMystery}
		var base int
		switch {
		case ev == EventChaos && i == 1:
			capped := tier.ChaosRiskCap()
			if tier.RiskBMin > capped {
				// tables.Validate rejects such tiers at load time
				panic(fmt.Sprintf("tower: tier %s chaos range [%d,%d) is empty", tier.Name, tier.RiskBMin, capped))
			}
			base = tier.RiskBMin + int(math.Floor(g.src.Float64()*float64(capped-tier.RiskBMin)))
			d.RewardType = RewardMultiply
			d.RewardValue = round1(tier.MultiplyMax * chaosRewardScale)
		case i == 1:
			base = rng.Int(g.src, tier.RiskBMin, tier.RiskBMax)
			d.RewardType = RewardMultiply
			d.RewardValue = round1(rng.Between(g.src, tier.MultiplyMin, tier.MultiplyMax))
		default:
			base = rng.Int(g.src, tier.RiskAMin, tier.RiskAMax)
			d.RewardType = RewardFlat
			d.RewardValue = math.Floor(rng.Between(g.src, tier.FlatRewardMin, tier.FlatRewardMax))
		}
		d.RiskPercent = AdjustRisk(base, stats)

		if double {
			if d.RewardType == RewardFlat {
				d.RewardValue *= 2
			} else {
				d.RewardValue = round1(d.RewardValue * doubleMultiply)
			}
		}
		if d.RewardType == RewardFlat {
			d.Label = flatLabel(d.RewardValue, double)
		} else {
			d.Label = multiplyLabel(d.RewardValue, double)
		}
		doors = append(doors, d)
	}
	return doors
}

// round1 rounds the exact binary value of v to one decimal, half up, so 1.45 (stored as
// 1.4499...) gives 1.4.
func round1(v float64) float64 {
	return decimal.NewFromFloatWithExponent(v, -1).InexactFloat64()
}

func flatLabel(v float64, double bool) string {
	if double {
		return fmt.Sprintf("+%d ×2!", int(v))
	}
	return fmt.Sprintf("+%d", int(v))
}

func multiplyLabel(v float64, double bool) string {
	s := decimal.NewFromFloat(v).String()
	if double {
		return "×" + s + "!"
	}
	return "×" + s
}
