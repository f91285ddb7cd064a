// Package tower generates floors: tier lookup, special events and doors with risk and reward.
package tower

// RewardType says how a door's reward is applied.
type RewardType string

const (
	RewardFlat     RewardType = "flat"
	RewardMultiply RewardType = "multiply"
	RewardShield   RewardType = "shield"
	RewardFortune  RewardType = "fortune"
)

// Event is a special floor modifier. EventNone is the empty value.
type Event string

const (
	EventNone    Event = ""
	EventChaos   Event = "chaos"
	EventDouble  Event = "double"
	EventMystery Event = "mystery"
	EventShield  Event = "shield"
	EventFortune Event = "fortune"
)

// Events is the closed set, in draw order.
var Events = []Event{EventChaos, EventDouble, EventMystery, EventShield, EventFortune}

// Door is generated fresh per floor and never changes afterwards.
type Door struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	RewardType  RewardType `json:"rewardType"`
	RewardValue float64    `json:"rewardValue"`
	RiskPercent int        `json:"riskPercent"`
	RiskHidden  bool       `json:"riskHidden"` // display only; resolution always uses RiskPercent
	IsHighRisk  bool       `json:"isHighRisk"`
	IsStability bool       `json:"isStability,omitempty"`
}

// FloorData describes one floor. A new value replaces it on every advance.
type FloorData struct {
	FloorNumber      int    `json:"floorNumber"`
	Tier             string `json:"tier"`
	BgColor          uint32 `json:"bgColor"`
	AccentColor      uint32 `json:"accentColor"`
	IsStabilityFloor bool   `json:"isStabilityFloor"`
	SpecialEvent     Event  `json:"specialEvent"`
	Doors            []Door `json:"doors"`
}

// Door finds a door by id.
func (f FloorData) Door(id string) (Door, bool) {
	for _, d := range f.Doors {
		if d.ID == id {
			return d, true
		}
	}
	return Door{}, false
}
