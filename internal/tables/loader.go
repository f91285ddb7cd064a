package tables

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Loader reads the embedded defaults and merges an optional override file on top.
type Loader struct {
	overridePath string // optional; empty means defaults only

	mu     sync.RWMutex
	cached *Tables
}

// NewLoader creates a loader. overridePath may be empty or point to a missing file.
func NewLoader(overridePath string) *Loader {
	return &Loader{overridePath: overridePath}
}

// Path is the override file being read, if any.
func (l *Loader) Path() string { return l.overridePath }

// Load returns the merged, validated tables. Results are cached until Invalidate.
func (l *Loader) Load() (*Tables, error) {
	l.mu.RLock()
	if l.cached != nil {
		t := l.cached
		l.mu.RUnlock()
		return t, nil
	}
	l.mu.RUnlock()

	base, err := Default()
	if err != nil {
		return nil, err
	}
	var override Tables
	if l.overridePath != "" {
		override, err = readYAML(l.overridePath)
		if err != nil {
			return nil, fmt.Errorf("read override: %w", err)
		}
	}
	merged := mergeTables(*base, override)
	if err := Validate(&merged); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cached = &merged
	l.mu.Unlock()
	return &merged, nil
}

// Invalidate clears the cache. Call after the watcher detects a change.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// Default parses the embedded tables.
func Default() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultYAML, &t); err != nil {
		return nil, fmt.Errorf("parse default tables: %w", err)
	}
	return &t, nil
}

// MustDefault is Default for tests and tools; it panics on a broken embed.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// readYAML loads a YAML file. Missing files return zero tables, no error.
func readYAML(path string) (Tables, error) {
	var t Tables
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tables{}, nil
		}
		return Tables{}, err
	}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// mergeTables lets 'b' override 'a'. Scalars win when non-zero; lists replace wholesale.
func mergeTables(a, b Tables) Tables {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	if b.Rules.AutoBankFloor != 0 {
		out.Rules.AutoBankFloor = b.Rules.AutoBankFloor
	}
	if b.Rules.DailyRewardMin != 0 {
		out.Rules.DailyRewardMin = b.Rules.DailyRewardMin
	}
	if b.Rules.DailyRewardMax != 0 {
		out.Rules.DailyRewardMax = b.Rules.DailyRewardMax
	}
	if b.Rules.DailyMissionCount != 0 {
		out.Rules.DailyMissionCount = b.Rules.DailyMissionCount
	}

	if len(b.Tiers) > 0 {
		out.Tiers = append([]Tier(nil), b.Tiers...)
	}
	if len(b.Events) > 0 {
		out.Events = append([]EventInfo(nil), b.Events...)
	}
	if len(b.Upgrades) > 0 {
		out.Upgrades = append([]UpgradeDefinition(nil), b.Upgrades...)
	}
	if len(b.Achievements) > 0 {
		out.Achievements = append([]Achievement(nil), b.Achievements...)
	}
	if len(b.Missions) > 0 {
		out.Missions = append([]MissionDefinition(nil), b.Missions...)
	}
	return out
}
