// Package save converts game state into versioned save records and back,
// migrating old schemas forward on load, and provides the storage backends
// the records live in.
package save

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/reelhouse/slotengine/internal/domain"
)

// DefaultRecord returns a fully-specified record at the current schema.
// Migrations deep-merge stored data over this, so every field always has a
// defined value.
func DefaultRecord(initialCredits, defaultBet int) *domain.SaveRecord {
	return &domain.SaveRecord{
		SchemaVersion:   domain.SaveSchemaVersion,
		Credits:         initialCredits,
		CurrentBet:      defaultBet,
		CurrentBetIndex: 0,
		Progression: domain.ProgressionSave{
			LevelSystem:     domain.LevelSave{Level: 1},
			Achievements:    []string{},
			DailyChallenges: []domain.ChallengeSave{},
		},
		Features: domain.FeaturesSave{
			CascadeEnabled: true,
		},
		SpinHistory: domain.SpinHistorySave{Entries: []domain.SpinHistoryEntry{}},
		Timestamp:   time.Now().UnixMilli(),
	}
}

// Encode serializes a record at the current schema version.
func Encode(record *domain.SaveRecord) ([]byte, error) {
	record.SchemaVersion = domain.SaveSchemaVersion
	record.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode save record: %w", err)
	}
	return data, nil
}

// Decode parses raw save data, migrates stale schemas forward and repairs
// invalid numeric fields. migrated reports whether the caller should
// re-persist the upgraded record.
func Decode(data []byte, defaults *domain.SaveRecord) (record *domain.SaveRecord, migrated bool, err error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	version := intField(raw, "schema_version", 1)
	if version > domain.SaveSchemaVersion {
		return nil, false, fmt.Errorf("%w: version %d", domain.ErrSchemaTooNew, version)
	}

	for version < domain.SaveSchemaVersion {
		raw = migrations[version](raw)
		version++
	}
	raw["schema_version"] = domain.SaveSchemaVersion

	// Deep-merge over the fully-specified defaults so absent fields land on
	// defined values rather than zero values.
	var defaultRaw map[string]interface{}
	defaultData, err := json.Marshal(defaults)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := json.Unmarshal(defaultData, &defaultRaw); err != nil {
		return nil, false, fmt.Errorf("failed to decode defaults: %w", err)
	}
	merged := deepMerge(defaultRaw, raw)

	mergedData, err := json.Marshal(merged)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode merged record: %w", err)
	}
	record = &domain.SaveRecord{}
	if err := json.Unmarshal(mergedData, record); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	repaired := repair(record, defaults)
	return record, wasStale(data) || repaired, nil
}

// wasStale re-reads only the stored version to report staleness precisely.
func wasStale(data []byte) bool {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return true
	}
	if probe.SchemaVersion == 0 {
		return true
	}
	return probe.SchemaVersion < domain.SaveSchemaVersion
}

// migrations[v] upgrades a raw record from schema v to v+1. Each migration
// only fills the fields its version introduced; the default-merge in Decode
// completes the rest.
var migrations = map[int]func(map[string]interface{}) map[string]interface{}{
	// v1 -> v2: feature flags moved under a features block.
	1: func(raw map[string]interface{}) map[string]interface{} {
		features, _ := raw["features"].(map[string]interface{})
		if features == nil {
			features = map[string]interface{}{}
		}
		if enabled, ok := raw["cascade_enabled"]; ok {
			features["cascade_enabled"] = enabled
			delete(raw, "cascade_enabled")
		}
		if turbo, ok := raw["turbo_mode"]; ok {
			features["turbo_mode"] = turbo
			delete(raw, "turbo_mode")
		}
		raw["features"] = features
		return raw
	},
	// v2 -> v3: progression gained daily challenges and statistics.
	2: func(raw map[string]interface{}) map[string]interface{} {
		progression, _ := raw["progression"].(map[string]interface{})
		if progression == nil {
			progression = map[string]interface{}{}
		}
		if _, ok := progression["daily_challenges"]; !ok {
			progression["daily_challenges"] = []interface{}{}
		}
		if stats, ok := raw["statistics"]; ok {
			progression["statistics"] = stats
			delete(raw, "statistics")
		}
		raw["progression"] = progression
		return raw
	},
}

// deepMerge overlays src onto dst recursively. Maps merge; everything else
// in src wins.
func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := out[k].(map[string]interface{}); ok {
				out[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// repair clamps invalid numeric fields back to defaults and reports whether
// anything changed.
func repair(record, defaults *domain.SaveRecord) bool {
	changed := false
	if record.Credits < 0 {
		record.Credits = defaults.Credits
		changed = true
	}
	if record.CurrentBet <= 0 {
		record.CurrentBet = defaults.CurrentBet
		changed = true
	}
	if record.CurrentBetIndex < 0 {
		record.CurrentBetIndex = 0
		changed = true
	}
	if record.Progression.LevelSystem.Level < 1 {
		record.Progression.LevelSystem.Level = 1
		changed = true
	}
	if record.Progression.LevelSystem.XP < 0 {
		record.Progression.LevelSystem.XP = 0
		changed = true
	}
	return changed
}

// intField reads an integer from raw JSON, tolerating float64 decoding and
// non-finite garbage.
func intField(raw map[string]interface{}, key string, fallback int) int {
	v, ok := raw[key]
	if !ok {
		return fallback
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(f)
}
