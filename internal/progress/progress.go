// Package progress keeps the meta-progression that survives between runs: upgrade levels,
// currency, best floor, lifetime banked total, achievements, daily reward and daily missions.
//
// Every mutation flushes the records it touched to the Store before returning. A failed
// flush is logged and otherwise ignored; a failed or corrupt read falls back to defaults.
package progress

import (
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtding233/spiral-backend/internal/rng"
	"github.com/xtding233/spiral-backend/internal/tables"
)

// Mission is one entry of the daily mission list with its progress.
type Mission struct {
	ID        string `json:"id"`
	Desc      string `json:"desc"`
	Type      string `json:"type"`
	Target    int    `json:"target"`
	Reward    int    `json:"reward"`
	Progress  int    `json:"progress"`
	Completed bool   `json:"completed"`
}

type dailyReward struct {
	Date    string `json:"date"`
	Claimed bool   `json:"claimed"`
}

type dailyMissions struct {
	Date     string    `json:"date"`
	Missions []Mission `json:"missions"`
}

// UpgradeView is a catalog entry as shown in an upgrade shop.
type UpgradeView struct {
	tables.UpgradeDefinition
	CurrentLevel int  `json:"currentLevel"`
	CanPurchase  bool `json:"canPurchase"`
	NextCost     *int `json:"nextCost"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(l zerolog.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithClock replaces time.Now for the daily gates.
func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

// WithRandom sets the source for the daily reward amount and mission selection.
func WithRandom(src rng.RandomSource) Option { return func(a *Aggregator) { a.rng = src } }

// Aggregator owns the persisted progression.
type Aggregator struct {
	mu     sync.Mutex
	store  Store
	tables *tables.Tables
	logger zerolog.Logger
	now    func() time.Time
	rng    rng.RandomSource

	levels       map[string]int
	currency     int
	bestFloor    int
	totalBanked  int
	achievements []string
	daily        dailyReward
	missions     dailyMissions
}

// New loads the aggregator from store.
func New(store Store, t *tables.Tables, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:  store,
		tables: t,
		logger: zerolog.Nop(),
		now:    time.Now,
		rng:    rng.DefaultRNG(),
	}
	for _, o := range opts {
		o(a)
	}
	a.load()
	return a
}

// SetTables swaps the static definitions, e.g. after a hot reload.
func (a *Aggregator) SetTables(t *tables.Tables) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tables = t
}

func (a *Aggregator) today() string {
	return a.now().UTC().Format("2006-01-02")
}

func (a *Aggregator) load() {
	a.levels = map[string]int{}
	a.readJSON(KeyUpgrades, &a.levels)
	if a.levels == nil {
		a.levels = map[string]int{}
	}
	a.currency = a.readInt(KeyCurrency)
	a.bestFloor = a.readInt(KeyBestFloor)
	a.totalBanked = a.readInt(KeyTotalBanked)
	a.readJSON(KeyAchievements, &a.achievements)
	a.readJSON(KeyDailyReward, &a.daily)
	a.readJSON(KeyMissions, &a.missions)
}

func (a *Aggregator) read(key string) (string, bool) {
	v, ok, err := a.store.Get(key)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("read failed, using default")
		return "", false
	}
	return v, ok
}

func (a *Aggregator) readInt(key string) int {
	v, ok := a.read(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("corrupt record, using default")
		return 0
	}
	return n
}

// readJSON leaves dst untouched when the record is absent or corrupt.
func (a *Aggregator) readJSON(key string, dst any) {
	v, ok := a.read(key)
	if !ok {
		return
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("corrupt record, using default")
	}
}

// flush writes the named records. Caller holds a.mu.
func (a *Aggregator) flush(keys ...string) {
	for _, key := range keys {
		var (
			val string
			err error
		)
		switch key {
		case KeyCurrency:
			val = strconv.Itoa(a.currency)
		case KeyBestFloor:
			val = strconv.Itoa(a.bestFloor)
		case KeyTotalBanked:
			val = strconv.Itoa(a.totalBanked)
		case KeyUpgrades:
			val, err = marshal(a.levels)
		case KeyAchievements:
			val, err = marshal(a.achievements)
		case KeyDailyReward:
			val, err = marshal(a.daily)
		case KeyMissions:
			val, err = marshal(a.missions)
		}
		if err == nil {
			err = a.store.Set(key, val)
		}
		if err != nil {
			a.logger.Error().Err(err).Str("key", key).Msg("write failed")
		}
	}
}

func marshal(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// Level defaults to 0 for unknown or unpurchased upgrades.
func (a *Aggregator) Level(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.levels[id]
}

// CanPurchase is false at max level or when currency is short of the next cost.
func (a *Aggregator) CanPurchase(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.nextCost(id)
	return ok
}

// nextCost returns the affordable price of the next level. Caller holds a.mu.
func (a *Aggregator) nextCost(id string) (int, bool) {
	u, ok := a.tables.Upgrade(id)
	if !ok {
		return 0, false
	}
	cost, ok := u.CostAt(a.levels[id])
	if !ok || a.currency < cost {
		return 0, false
	}
	return cost, true
}

// Purchase spends the next level's cost and raises the level by one.
func (a *Aggregator) Purchase(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	cost, ok := a.nextCost(id)
	if !ok {
		return false
	}
	a.currency -= cost
	a.levels[id]++
	a.flush(KeyUpgrades, KeyCurrency)
	return true
}

// Stats recomputes the aggregated modifiers from the purchased levels.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Aggregate(a.tables.Upgrades, a.levels)
}

// Catalog lists every upgrade with its purchase state.
func (a *Aggregator) Catalog() []UpgradeView {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]UpgradeView, 0, len(a.tables.Upgrades))
	for _, u := range a.tables.Upgrades {
		level := a.levels[u.ID]
		v := UpgradeView{UpgradeDefinition: u, CurrentLevel: level}
		if cost, ok := u.CostAt(level); ok {
			v.NextCost = &cost
			v.CanPurchase = a.currency >= cost
		}
		out = append(out, v)
	}
	return out
}

func (a *Aggregator) Currency() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currency
}

func (a *Aggregator) AddCurrency(amount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currency += amount
	a.flush(KeyCurrency)
}

func (a *Aggregator) BestFloor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bestFloor
}

// UpdateBestFloor records floor if it beats the best and reports whether it did.
func (a *Aggregator) UpdateBestFloor(floor int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if floor <= a.bestFloor {
		return false
	}
	a.bestFloor = floor
	a.flush(KeyBestFloor)
	return true
}

func (a *Aggregator) TotalBanked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalBanked
}

func (a *Aggregator) AddTotalBanked(amount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalBanked += amount
	a.flush(KeyTotalBanked)
}

// AchievementMet is the unlock predicate for one achievement.
func AchievementMet(ach tables.Achievement, floorReached, bankedScore int) bool {
	switch ach.Condition.Type {
	case "floor":
		return floorReached >= ach.Condition.Value
	case "bank":
		return bankedScore >= ach.Condition.Value
	}
	return false
}

func (a *Aggregator) HasAchievement(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Contains(a.achievements, id)
}

// UnlockAchievement is idempotent; it reports whether id was newly unlocked.
func (a *Aggregator) UnlockAchievement(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.Contains(a.achievements, id) {
		return false
	}
	a.achievements = append(a.achievements, id)
	a.flush(KeyAchievements)
	return true
}

// CheckAchievements unlocks every achievement the outcome satisfies and returns the new ids.
func (a *Aggregator) CheckAchievements(floorReached, bankedScore int) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var unlocked []string
	for _, ach := range a.tables.Achievements {
		if slices.Contains(a.achievements, ach.ID) || !AchievementMet(ach, floorReached, bankedScore) {
			continue
		}
		a.achievements = append(a.achievements, ach.ID)
		unlocked = append(unlocked, ach.ID)
	}
	if len(unlocked) > 0 {
		a.flush(KeyAchievements)
	}
	return unlocked
}

func (a *Aggregator) Achievements() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.achievements)
}

// DailyRewardAvailable reports whether today's reward is still unclaimed.
func (a *Aggregator) DailyRewardAvailable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.daily.Date != a.today() || !a.daily.Claimed
}

// ClaimDailyReward credits a random amount in the configured range once per UTC date.
func (a *Aggregator) ClaimDailyReward() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	today := a.today()
	if a.daily.Date == today && a.daily.Claimed {
		return 0, false
	}
	r := a.tables.Rules
	reward := rng.Int(a.rng, r.DailyRewardMin, r.DailyRewardMax)
	a.daily = dailyReward{Date: today, Claimed: true}
	a.currency += reward
	a.flush(KeyDailyReward, KeyCurrency)
	return reward, true
}

// DailyMissions returns today's missions; a list saved on another date is stale and empty.
func (a *Aggregator) DailyMissions() []Mission {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.missions.Date != a.today() {
		return nil
	}
	return slices.Clone(a.missions.Missions)
}

// RollDailyMissions returns today's list, drawing a fresh one from the pool if needed.
func (a *Aggregator) RollDailyMissions() []Mission {
	a.mu.Lock()
	defer a.mu.Unlock()
	today := a.today()
	if a.missions.Date == today && len(a.missions.Missions) > 0 {
		return slices.Clone(a.missions.Missions)
	}
	pool := rng.Shuffle(a.rng, a.tables.Missions)
	n := min(a.tables.Rules.DailyMissionCount, len(pool))
	list := make([]Mission, 0, n)
	for _, m := range pool[:n] {
		list = append(list, Mission{ID: m.ID, Desc: m.Desc, Type: m.Type, Target: m.Target, Reward: m.Reward})
	}
	a.missions = dailyMissions{Date: today, Missions: list}
	a.flush(KeyMissions)
	return slices.Clone(list)
}

// SaveMissions stores list as today's missions.
func (a *Aggregator) SaveMissions(list []Mission) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.missions = dailyMissions{Date: a.today(), Missions: slices.Clone(list)}
	a.flush(KeyMissions)
}

// Reset wipes all progression.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.levels = map[string]int{}
	a.currency = 0
	a.bestFloor = 0
	a.totalBanked = 0
	a.achievements = nil
	a.daily = dailyReward{}
	a.missions = dailyMissions{}
	a.flush(KeyUpgrades, KeyCurrency, KeyBestFloor, KeyTotalBanked, KeyAchievements, KeyDailyReward, KeyMissions)
}
