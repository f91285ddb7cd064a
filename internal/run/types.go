package run

import (
	"time"

	"github.com/xtding233/spiral-backend/internal/progress"
)

// Phase is the machine's lifecycle position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseBanked
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseBanked:
		return "banked"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MissionStats are per-run counters. They only move forward.
type MissionStats struct {
	RiskyDoorsSurvived int  `json:"riskyDoorsSurvived"`
	FortuneTriggered   bool `json:"fortuneTriggered"`
	UsedShield         bool `json:"usedShield"`
	MaxFloor           int  `json:"maxFloor"`
	TotalBanked        int  `json:"totalBanked"`
}

// State is a snapshot of the run. AutoBankFloor 0 means unset.
type State struct {
	ID            string         `json:"id"`
	Seed          uint32         `json:"seed"`
	Phase         string         `json:"phase"`
	Floor         int            `json:"floor"`
	UnbankedScore int            `json:"unbankedScore"`
	BankedScore   int            `json:"bankedScore"`
	Shield        int            `json:"shield"`
	RevivesLeft   int            `json:"revivesLeft"`
	AutoBankFloor int            `json:"autoBankFloor,omitempty"`
	RunActive     bool           `json:"runActive"`
	MissionStats  MissionStats   `json:"missionStats"`
	Stats         progress.Stats `json:"stats"`
}

// Reward type strings that only appear in results.
const (
	ResultShieldAbsorb = "shield-absorb"
	ResultRevive       = "revive"
)

// DoorResult is the outcome of AttemptDoor. Failure is set only on a hard fail.
type DoorResult struct {
	Success        bool        `json:"success"`
	NearMiss       bool        `json:"nearMiss"`
	Reward         int         `json:"reward"`
	RewardType     string      `json:"rewardType,omitempty"`
	NewScore       int         `json:"newScore"`
	Shield         int         `json:"shield"`
	ShieldAbsorbed bool        `json:"shieldAbsorbed,omitempty"`
	Revived        bool        `json:"revived,omitempty"`
	Failure        *FailResult `json:"failure,omitempty"`
}

// FailResult is published with run-failed.
type FailResult struct {
	LostScore    int          `json:"lostScore"`
	BankedScore  int          `json:"bankedScore"`
	FloorReached int          `json:"floorReached"`
	MissionStats MissionStats `json:"missionStats"`
}

// BankResult is published with run-banked.
type BankResult struct {
	BankedScore    int          `json:"bankedScore"`
	FloorReached   int          `json:"floorReached"`
	CurrencyEarned int          `json:"currencyEarned"`
	IsNewRecord    bool         `json:"isNewRecord"`
	MissionStats   MissionStats `json:"missionStats"`
}

// SettleResult is what FinalizeFailedRun credited.
type SettleResult struct {
	BankedScore    int  `json:"bankedScore"`
	FloorReached   int  `json:"floorReached"`
	CurrencyEarned int  `json:"currencyEarned"`
	IsNewRecord    bool `json:"isNewRecord"`
}

// FortuneResult is published with fortune-result.
type FortuneResult struct {
	Won      bool `json:"won"`
	Bonus    int  `json:"bonus"`
	NewScore int  `json:"newScore"`
}

// FloorComplete is published with floor-complete.
type FloorComplete struct {
	Floor         int `json:"floor"`
	PreviousFloor int `json:"previousFloor"`
}

// Transition is a scheduled follow-up. Delay is a presentation hint only; transitions always
// run in queue order and all of them run before the next command is accepted.
type Transition struct {
	Name  string        `json:"name"`
	Delay time.Duration `json:"delay"`
	run   func()
}

// CurrencyFor converts a banked score and floor into meta currency.
func CurrencyFor(bankedScore, floor int) int {
	return bankedScore/100 + floor/5
}
