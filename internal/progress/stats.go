package progress

import "github.com/xtding233/spiral-backend/internal/tables"

// Stats is the bundle of modifiers produced by purchased upgrades. It is a value:
// callers snapshot it at run start and pass it down.
type Stats struct {
	RiskReduction    float64 `json:"riskReduction"` // fraction, 0.03 = 3 percentage points
	StartingShield   int     `json:"startingShield"`
	Revives          int     `json:"revives"`
	RewardMultiplier float64 `json:"rewardMultiplier"`
	RevealRisk       bool    `json:"revealRisk"`
	AutoBank         bool    `json:"autoBank"`
	StartingScore    int     `json:"startingScore"`
}

// BaseStats is the bundle with nothing purchased.
func BaseStats() Stats {
	return Stats{RewardMultiplier: 1.0}
}

// Aggregate sums effect*level over every definition with a purchased level and ORs the flags.
func Aggregate(defs []tables.UpgradeDefinition, levels map[string]int) Stats {
	s := BaseStats()
	for _, u := range defs {
		level := levels[u.ID]
		if level <= 0 {
			continue
		}
		ef := u.Effect
		s.RiskReduction += ef.RiskReduction * float64(level)
		s.StartingShield += ef.StartingShield * level
		s.Revives += ef.Revives * level
		s.RewardMultiplier += ef.RewardMultiplier * float64(level)
		s.StartingScore += ef.StartingScore * level
		s.RevealRisk = s.RevealRisk || ef.RevealRisk
		s.AutoBank = s.AutoBank || ef.AutoBank
	}
	return s
}
