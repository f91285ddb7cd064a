package run

import "github.com/xtding233/spiral-backend/internal/progress"

// MissionValue is what a finished run contributes toward a mission of the given type.
func MissionValue(missionType string, ms MissionStats) int {
	switch missionType {
	case "floor":
		return ms.MaxFloor
	case "bank":
		return ms.TotalBanked
	case "event":
		if ms.FortuneTriggered {
			return 1
		}
	case "risky":
		return ms.RiskyDoorsSurvived
	case "floor_noshield":
		if !ms.UsedShield {
			return ms.MaxFloor
		}
	}
	return 0
}

// EvaluateMissions applies one run's stats to list. Progress keeps the best single run,
// capped at the target. The returned reward covers missions completed by this run only.
func EvaluateMissions(list []progress.Mission, ms MissionStats) ([]progress.Mission, int) {
	out := make([]progress.Mission, len(list))
	reward := 0
	for i, m := range list {
		if !m.Completed {
			m.Progress = max(m.Progress, min(MissionValue(m.Type, ms), m.Target))
			if m.Progress >= m.Target {
				m.Completed = true
				reward += m.Reward
			}
		}
		out[i] = m
	}
	return out, reward
}
