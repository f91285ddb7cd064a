package tower

import (
	"reflect"
	"testing"

	"github.com/xtding233/spiral-backend/internal/progress"
	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/tables"
)

type constRNG float64

func (c constRNG) Float64() float64 { return float64(c) }

func newGen(seed uint32) *Generator {
	return NewGenerator(tables.MustDefault(), rng.New(seed))
}

func TestFirstFloorScenario(t *testing.T) {
	g := newGen(0)
	g.Reseed(1)
	fd := g.FloorData(1, progress.BaseStats())
	if fd.Tier != "Novice" || fd.SpecialEvent != EventNone || fd.IsStabilityFloor {
		t.Fatalf("floor 1 = %+v", fd)
	}
	if len(fd.Doors) != 2 {
		t.Fatalf("want 2 doors, got %d", len(fd.Doors))
	}
	a, b := fd.Doors[0], fd.Doors[1]
	if a.RiskPercent < 5 || a.RiskPercent > 12 || a.RewardType != RewardFlat {
		t.Fatalf("door A = %+v", a)
	}
	if b.RiskPercent < 10 || b.RiskPercent > 18 || b.RewardType != RewardMultiply || !b.IsHighRisk {
		t.Fatalf("door B = %+v", b)
	}
	if a.RewardValue < 30 || a.RewardValue > 100 || b.RewardValue < 1.5 || b.RewardValue > 2.0 {
		t.Fatalf("rewards out of tier bounds: %v %v", a.RewardValue, b.RewardValue)
	}
	if roll := rng.RollWithNearMiss(constRNG(0.0), b.RiskPercent); !roll.Failed {
		t.Fatalf("a roll under the threshold must fail: %+v", roll)
	}
}

func TestSameSeedSameFloors(t *testing.T) {
	x, y := newGen(0), newGen(0)
	x.Reseed(2024)
	y.Reseed(2024)
	stats := progress.BaseStats()
	for n := 1; n <= 150; n++ {
		a, b := x.FloorData(n, stats), y.FloorData(n, stats)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("floor %d diverged:\n%+v\n%+v", n, a, b)
		}
	}
}

func TestStabilityFloors(t *testing.T) {
	g := newGen(3)
	for n := 1; n <= 200; n++ {
		fd := g.FloorData(n, progress.BaseStats())
		if n%10 != 0 {
			continue
		}
		if !fd.IsStabilityFloor || fd.SpecialEvent != EventNone || len(fd.Doors) != 1 {
			t.Fatalf("floor %d = %+v", n, fd)
		}
		d := fd.Doors[0]
		tier := tables.MustDefault().TierFor(n)
		if d.RiskPercent != 0 || d.RewardType != RewardFlat || d.RewardValue < tier.StabilityRewardMin || d.RewardValue > tier.StabilityRewardMax {
			t.Fatalf("floor %d stability door = %+v", n, d)
		}
	}
}

func TestRiskBounds(t *testing.T) {
	for _, rr := range []float64{0, 0.03, 0.2, 0.6, 1.5} {
		stats := progress.BaseStats()
		stats.RiskReduction = rr
		for seed := uint32(1); seed <= 20; seed++ {
			g := newGen(seed)
			for n := 1; n <= 120; n++ {
				for _, d := range g.FloorData(n, stats).Doors {
					if d.RewardType == RewardShield || d.IsStability {
						if d.RiskPercent != 0 {
							t.Fatalf("safe door with risk %d", d.RiskPercent)
						}
						continue
					}
					if d.RiskPercent < 1 || d.RiskPercent > 100 {
						t.Fatalf("seed %d floor %d rr %v: risk %d", seed, n, rr, d.RiskPercent)
					}
				}
			}
		}
	}
}

func TestRiskReductionIsMonotonic(t *testing.T) {
	levels := []float64{0, 0.01, 0.02, 0.05, 0.1, 0.3}
	for base := 0; base <= 75; base++ {
		prev := 101
		for _, rr := range levels {
			got := AdjustRisk(base, progress.Stats{RiskReduction: rr})
			if got > prev {
				t.Fatalf("base %d: risk rose to %d at rr=%v", base, got, rr)
			}
			prev = got
		}
	}

	// same draws, more reduction: every door's risk is <= the unreduced one
	low, high := newGen(0), newGen(0)
	low.Reseed(77)
	high.Reseed(77)
	reduced := progress.Stats{RiskReduction: 0.05, RewardMultiplier: 1}
	for n := 1; n <= 60; n++ {
		a, b := low.FloorData(n, progress.BaseStats()), high.FloorData(n, reduced)
		for i := range a.Doors {
			if b.Doors[i].RiskPercent > a.Doors[i].RiskPercent {
				t.Fatalf("floor %d door %s: %d > %d", n, a.Doors[i].ID, b.Doors[i].RiskPercent, a.Doors[i].RiskPercent)
			}
		}
	}
}

func TestSteelNervesLevelThree(t *testing.T) {
	tb := tables.MustDefault()
	stats := progress.Aggregate(tb.Upgrades, map[string]int{"steel_nerves": 3})
	if got := AdjustRisk(10, stats); got != 7 {
		t.Fatalf("risk 10 with steel_nerves 3 = %d, want 7", got)
	}
	if got := AdjustRisk(2, stats); got != 1 {
		t.Fatalf("risk 2 must floor at 1, got %d", got)
	}
}

func TestChaosDoors(t *testing.T) {
	tb := tables.MustDefault()
	g := NewGenerator(tb, rng.New(9))
	for _, floor := range []int{5, 45, 90} {
		tier := tb.TierFor(floor)
		doors := g.doors(tier, progress.BaseStats(), EventChaos)
		if len(doors) != 3 {
			t.Fatalf("chaos should have 3 doors, got %d", len(doors))
		}
		c := doors[1]
		if c.RewardType != RewardMultiply || c.RewardValue != round1(tier.MultiplyMax*1.5) {
			t.Fatalf("center door = %+v", c)
		}
		if c.RiskPercent < tier.RiskBMin || c.RiskPercent >= tier.ChaosRiskCap() {
			t.Fatalf("center risk %d outside [%d,%d)", c.RiskPercent, tier.RiskBMin, tier.ChaosRiskCap())
		}
		for _, d := range []Door{doors[0], doors[2]} {
			if d.RewardType != RewardFlat || d.IsHighRisk {
				t.Fatalf("outer door %s should be a low-risk flat door: %+v", d.ID, d)
			}
			if d.RiskPercent < tier.RiskAMin || d.RiskPercent > tier.RiskAMax {
				t.Fatalf("outer door %s risk %d outside [%d,%d]", d.ID, d.RiskPercent, tier.RiskAMin, tier.RiskAMax)
			}
			if d.RewardValue < tier.FlatRewardMin || d.RewardValue > tier.FlatRewardMax {
				t.Fatalf("outer door %s reward %v outside [%v,%v]", d.ID, d.RewardValue, tier.FlatRewardMin, tier.FlatRewardMax)
			}
		}
	}
}

func TestDoubleAndMystery(t *testing.T) {
	tb := tables.MustDefault()
	tier := tb.TierFor(15)
	stats := progress.BaseStats()
	g := NewGenerator(tb, rng.New(0))

	g.Reseed(31)
	plain := g.doors(tier, stats, EventNone)
	g.Reseed(31)
	double := g.doors(tier, stats, EventDouble)
	g.Reseed(31)
	mystery := g.doors(tier, stats, EventMystery)

	if double[0].RewardValue != plain[0].RewardValue*2 {
		t.Fatalf("flat not doubled: %v vs %v", double[0].RewardValue, plain[0].RewardValue)
	}
	if double[1].RewardValue != round1(plain[1].RewardValue*1.5) {
		t.Fatalf("multiply not scaled: %v vs %v", double[1].RewardValue, plain[1].RewardValue)
	}
	for i := range plain {
		if !mystery[i].RiskHidden || plain[i].RiskHidden {
			t.Fatalf("risk hidden flag wrong on door %d", i)
		}
		if mystery[i].RiskPercent != plain[i].RiskPercent || double[i].RiskPercent != plain[i].RiskPercent {
			t.Fatalf("events must not change risk on door %d", i)
		}
	}
}

func TestEventSchedule(t *testing.T) {
	seen := map[Event]bool{}
	for seed := uint32(1); seed <= 40; seed++ {
		g := newGen(seed)
		last := 0
		for n := 1; n <= 300; n++ {
			fd := g.FloorData(n, progress.BaseStats())
			if fd.SpecialEvent == EventNone {
				continue
			}
			seen[fd.SpecialEvent] = true
			if n < 3 || n%10 == 0 {
				t.Fatalf("seed %d: event on floor %d", seed, n)
			}
			if gap := n - last; gap < 7 {
				t.Fatalf("seed %d: events %d floors apart", seed, gap)
			}
			last = n
			switch fd.SpecialEvent {
			case EventShield:
				d := fd.Doors[0]
				if len(fd.Doors) != 1 || d.RiskPercent != 0 || d.RewardType != RewardShield || d.RewardValue != 1 {
					t.Fatalf("shield floor = %+v", fd)
				}
			case EventFortune:
				d := fd.Doors[0]
				if len(fd.Doors) != 1 || d.RiskPercent != 50 || d.RewardType != RewardFortune {
					t.Fatalf("fortune floor = %+v", fd)
				}
			case EventChaos:
				if len(fd.Doors) != 3 {
					t.Fatalf("chaos floor = %+v", fd)
				}
			default:
				if len(fd.Doors) != 2 {
					t.Fatalf("%s floor = %+v", fd.SpecialEvent, fd)
				}
			}
		}
	}
	if len(seen) != len(Events) {
		t.Fatalf("not every event appeared: %v", seen)
	}
}

func TestLabels(t *testing.T) {
	if got := flatLabel(80, false); got != "+80" {
		t.Fatalf("got %q", got)
	}
	if got := flatLabel(160, true); got != "+160 ×2!" {
		t.Fatalf("got %q", got)
	}
	if got := multiplyLabel(2.5, false); got != "×2.5" {
		t.Fatalf("got %q", got)
	}
	if got := multiplyLabel(3, true); got != "×3!" {
		t.Fatalf("got %q", got)
	}
}

func TestRound1UsesBinaryValue(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.45, 1.4},
		{2.675, 2.7},
		{0.25, 0.3},
		{3.0, 3.0},
		{7.5, 7.5},
		{2.96, 3.0},
	}
	for _, tt := range tests {
		if got := round1(tt.in); got != tt.want {
			t.Errorf("round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
