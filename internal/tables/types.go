// Package tables holds the static data the simulation reads: floor tiers, special events,
// upgrade definitions, achievements and the daily mission pool.
package tables

// Tables is the full static configuration loaded from YAML.
type Tables struct {
	Version      string              `yaml:"version" json:"version"`
	Rules        Rules               `yaml:"rules" json:"rules"`
	Tiers        []Tier              `yaml:"tiers" json:"tiers"`
	Events       []EventInfo         `yaml:"events" json:"events"`
	Upgrades     []UpgradeDefinition `yaml:"upgrades" json:"upgrades"`
	Achievements []Achievement       `yaml:"achievements" json:"achievements"`
	Missions     []MissionDefinition `yaml:"missions" json:"missions"`
	Notes        string              `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type Rules struct {
	AutoBankFloor     int `yaml:"auto_bank_floor" json:"autoBankFloor"`
	DailyRewardMin    int `yaml:"daily_reward_min" json:"dailyRewardMin"`
	DailyRewardMax    int `yaml:"daily_reward_max" json:"dailyRewardMax"`
	DailyMissionCount int `yaml:"daily_mission_count" json:"dailyMissionCount"`
}

// Tier covers an inclusive floor range. MaxFloor 0 means the tier never ends.
type Tier struct {
	Name               string  `yaml:"name" json:"name"`
	MinFloor           int     `yaml:"min_floor" json:"minFloor"`
	MaxFloor           int     `yaml:"max_floor" json:"maxFloor"`
	FlatRewardMin      float64 `yaml:"flat_reward_min" json:"flatRewardMin"`
	FlatRewardMax      float64 `yaml:"flat_reward_max" json:"flatRewardMax"`
	MultiplyMin        float64 `yaml:"multiply_min" json:"multiplyMin"`
	MultiplyMax        float64 `yaml:"multiply_max" json:"multiplyMax"`
	RiskAMin           int     `yaml:"risk_a_min" json:"riskAMin"`
	RiskAMax           int     `yaml:"risk_a_max" json:"riskAMax"`
	RiskBMin           int     `yaml:"risk_b_min" json:"riskBMin"`
	RiskBMax           int     `yaml:"risk_b_max" json:"riskBMax"`
	StabilityRewardMin float64 `yaml:"stability_reward_min" json:"stabilityRewardMin"`
	StabilityRewardMax float64 `yaml:"stability_reward_max" json:"stabilityRewardMax"`
	BgColor            uint32  `yaml:"bg_color" json:"bgColor"`
	AccentColor        uint32  `yaml:"accent_color" json:"accentColor"`
}

// Contains reports whether floor falls inside the tier.
func (t Tier) Contains(floor int) bool {
	return floor >= t.MinFloor && (t.MaxFloor == 0 || floor <= t.MaxFloor)
}

// ChaosRiskCap is the exclusive upper bound of the chaos center door risk range.
func (t Tier) ChaosRiskCap() int {
	return min(75, t.RiskBMax+15)
}

type EventInfo struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Desc      string `yaml:"desc" json:"desc"`
	Color     uint32 `yaml:"color" json:"color"`
	DoorCount int    `yaml:"door_count" json:"doorCount"`
}

type UpgradeDefinition struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Desc     string `yaml:"desc" json:"desc"`
	Cost     []int  `yaml:"cost" json:"cost"` // indexed by current level
	MaxLevel int    `yaml:"max_level" json:"maxLevel"`
	Effect   Effect `yaml:"effect" json:"effect"`
}

// CostAt returns the price of buying the next level from level, or false past the ladder.
func (u UpgradeDefinition) CostAt(level int) (int, bool) {
	if level < 0 || level >= u.MaxLevel || level >= len(u.Cost) {
		return 0, false
	}
	return u.Cost[level], true
}

// Effect is the per-level delta an upgrade grants. Booleans are OR-ed, numbers scale by level.
type Effect struct {
	RiskReduction    float64 `yaml:"risk_reduction,omitempty" json:"riskReduction,omitempty"`
	StartingShield   int     `yaml:"starting_shield,omitempty" json:"startingShield,omitempty"`
	Revives          int     `yaml:"revives,omitempty" json:"revives,omitempty"`
	RewardMultiplier float64 `yaml:"reward_multiplier,omitempty" json:"rewardMultiplier,omitempty"`
	RevealRisk       bool    `yaml:"reveal_risk,omitempty" json:"revealRisk,omitempty"`
	AutoBank         bool    `yaml:"auto_bank,omitempty" json:"autoBank,omitempty"`
	StartingScore    int     `yaml:"starting_score,omitempty" json:"startingScore,omitempty"`
}

type Achievement struct {
	ID         string    `yaml:"id" json:"id"`
	Name       string    `yaml:"name" json:"name"`
	Desc       string    `yaml:"desc" json:"desc"`
	Condition  Condition `yaml:"condition" json:"condition"`
	BadgeColor uint32    `yaml:"badge_color" json:"badgeColor"`
}

type Condition struct {
	Type  string `yaml:"type" json:"type"` // "floor" | "bank"
	Value int    `yaml:"value" json:"value"`
}

type MissionDefinition struct {
	ID     string `yaml:"id" json:"id"`
	Desc   string `yaml:"desc" json:"desc"`
	Target int    `yaml:"target" json:"target"`
	Type   string `yaml:"type" json:"type"` // floor | bank | event | risky | floor_noshield
	Reward int    `yaml:"reward" json:"reward"`
}

// TierFor resolves the tier for floor; floors outside every range fall back to the last tier.
func (t *Tables) TierFor(floor int) Tier {
	for _, tier := range t.Tiers {
		if tier.Contains(floor) {
			return tier
		}
	}
	return t.Tiers[len(t.Tiers)-1]
}

// Upgrade looks up a definition by id.
func (t *Tables) Upgrade(id string) (UpgradeDefinition, bool) {
	for _, u := range t.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return UpgradeDefinition{}, false
}

// Event looks up a special event descriptor by id.
func (t *Tables) Event(id string) (EventInfo, bool) {
	for _, e := range t.Events {
		if e.ID == id {
			return e, true
		}
	}
	return EventInfo{}, false
}
