package run

import (
	"testing"

	"github.com/xtding233/spiral-backend/internal/progress"
)

func TestMissionValue(t *testing.T) {
	ms := MissionStats{RiskyDoorsSurvived: 4, FortuneTriggered: true, MaxFloor: 12, TotalBanked: 640}
	tests := []struct {
		typ  string
		want int
	}{
		{"floor", 12},
		{"bank", 640},
		{"event", 1},
		{"risky", 4},
		{"floor_noshield", 12},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := MissionValue(tt.typ, ms); got != tt.want {
			t.Errorf("MissionValue(%q) = %d, want %d", tt.typ, got, tt.want)
		}
	}

	ms.UsedShield = true
	ms.FortuneTriggered = false
	if got := MissionValue("floor_noshield", ms); got != 0 {
		t.Errorf("shielded run counted for floor_noshield: %d", got)
	}
	if got := MissionValue("event", ms); got != 0 {
		t.Errorf("event without fortune = %d", got)
	}
}

func TestEvaluateMissions(t *testing.T) {
	list := []progress.Mission{
		{ID: "reach_15", Type: "floor", Target: 15, Reward: 75, Progress: 9},
		{ID: "bank_500", Type: "bank", Target: 500, Reward: 50},
		{ID: "use_fortune", Type: "event", Target: 1, Reward: 100, Progress: 1, Completed: true},
	}

	got, reward := EvaluateMissions(list, MissionStats{MaxFloor: 6, TotalBanked: 800, FortuneTriggered: true})
	if reward != 50 {
		t.Fatalf("reward = %d, want 50", reward)
	}
	if got[0].Progress != 9 || got[0].Completed {
		t.Fatalf("floor mission regressed: %+v", got[0])
	}
	if got[1].Progress != 500 || !got[1].Completed {
		t.Fatalf("bank mission = %+v", got[1])
	}
	if list[1].Completed {
		t.Fatal("input list mutated")
	}

	got, reward = EvaluateMissions(got, MissionStats{MaxFloor: 15, TotalBanked: 900, FortuneTriggered: true})
	if reward != 75 || !got[0].Completed {
		t.Fatalf("second run reward = %d missions %+v", reward, got)
	}
}
