package tables

import (
	"fmt"
	"strings"
)

var knownEvents = map[string]bool{"chaos": true, "double": true, "mystery": true, "shield": true, "fortune": true}

// Validate checks semantic constraints of merged tables.
func Validate(t *Tables) error {
	var errs []string

	// tiers: ascending, contiguous, last one unbounded
	if len(t.Tiers) == 0 {
		errs = append(errs, "tiers must not be empty")
	}
	for i, tier := range t.Tiers {
		p := fmt.Sprintf("tiers[%d](%s)", i, tier.Name)
		if i == 0 && tier.MinFloor != 1 {
			errs = append(errs, p+".min_floor must be 1")
		}
		if i > 0 {
			prev := t.Tiers[i-1]
			if prev.MaxFloor == 0 || tier.MinFloor != prev.MaxFloor+1 {
				errs = append(errs, p+".min_floor must follow the previous tier's max_floor")
			}
		}
		last := i == len(t.Tiers)-1
		if last && tier.MaxFloor != 0 {
			errs = append(errs, p+".max_floor must be 0 (unbounded) on the last tier")
		}
		if !last && tier.MaxFloor < tier.MinFloor {
			errs = append(errs, p+".max_floor must be >= min_floor")
		}
		if tier.RiskAMin < 0 || tier.RiskAMin > tier.RiskAMax || tier.RiskAMax > 100 {
			errs = append(errs, p+" risk_a bounds must satisfy 0 <= min <= max <= 100")
		}
		if tier.RiskBMin < 0 || tier.RiskBMin > tier.RiskBMax || tier.RiskBMax > 100 {
			errs = append(errs, p+" risk_b bounds must satisfy 0 <= min <= max <= 100")
		}
		if tier.RiskBMin > tier.ChaosRiskCap() {
			errs = append(errs, p+" risk_b_min exceeds the chaos risk cap min(75, risk_b_max+15)")
		}
		if tier.FlatRewardMin > tier.FlatRewardMax || tier.FlatRewardMin < 0 {
			errs = append(errs, p+" flat reward bounds invalid")
		}
		if tier.MultiplyMin > tier.MultiplyMax || tier.MultiplyMin < 1 {
			errs = append(errs, p+" multiply bounds must satisfy 1 <= min <= max")
		}
		if tier.StabilityRewardMin > tier.StabilityRewardMax || tier.StabilityRewardMin < 0 {
			errs = append(errs, p+" stability reward bounds invalid")
		}
	}

	for i, e := range t.Events {
		if !knownEvents[e.ID] {
			errs = append(errs, fmt.Sprintf("events[%d].id %q is not a known special event", i, e.ID))
		}
	}

	seen := map[string]bool{}
	for i, u := range t.Upgrades {
		p := fmt.Sprintf("upgrades[%d](%s)", i, u.ID)
		if u.ID == "" {
			errs = append(errs, fmt.Sprintf("upgrades[%d].id is required", i))
		}
		if seen[u.ID] {
			errs = append(errs, p+" duplicate id")
		}
		seen[u.ID] = true
		if u.MaxLevel < 1 {
			errs = append(errs, p+".max_level must be >= 1")
		}
		if len(u.Cost) < u.MaxLevel {
			errs = append(errs, p+".cost must have one entry per level")
		}
		for j, c := range u.Cost {
			if c < 0 {
				errs = append(errs, fmt.Sprintf("%s.cost[%d] must be >= 0", p, j))
			}
		}
	}

	for i, a := range t.Achievements {
		if a.Condition.Type != "floor" && a.Condition.Type != "bank" {
			errs = append(errs, fmt.Sprintf("achievements[%d].condition.type must be floor or bank", i))
		}
	}

	for i, m := range t.Missions {
		switch m.Type {
		case "floor", "bank", "event", "risky", "floor_noshield":
		default:
			errs = append(errs, fmt.Sprintf("missions[%d].type %q is not supported", i, m.Type))
		}
		if m.Target <= 0 {
			errs = append(errs, fmt.Sprintf("missions[%d].target must be > 0", i))
		}
	}

	if t.Rules.DailyRewardMin < 0 || t.Rules.DailyRewardMin > t.Rules.DailyRewardMax {
		errs = append(errs, "rules.daily_reward_min must be <= daily_reward_max")
	}
	if t.Rules.AutoBankFloor < 0 {
		errs = append(errs, "rules.auto_bank_floor must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("tables validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
