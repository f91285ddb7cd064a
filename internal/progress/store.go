package progress

// Store is the raw key-value persistence contract. Get reports ok=false for absent keys.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Keys of the logical records kept in the store.
const (
	KeyBestFloor    = "spiral/best_floor"
	KeyTotalBanked  = "spiral/total_banked"
	KeyCurrency     = "spiral/currency"
	KeyUpgrades     = "spiral/upgrades"
	KeyDailyReward  = "spiral/daily_reward"
	KeyAchievements = "spiral/achievements"
	KeyMissions     = "spiral/missions"
)
