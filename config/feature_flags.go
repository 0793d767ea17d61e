package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for gradual rollout.
// Supports percentage rollout keyed by profile ID, time-based activation
// and per-profile overrides for testing.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	profileOverrides map[string]map[string]bool // profileID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Profiles are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	ProfileID string
	IsAdmin   bool
}

// Predefined feature flag names. Every flag here is consulted at worker
// wiring; behavior that is part of the engine contract (filters, fallback,
// engagement scoring) is not flagged.
const (
	// === Scoring Features ===
	FeatureScoringRankDiffEvents = "scoring.rank_diff_events" // emit rank change events between passes

	// === Operational Features ===
	FeatureOpsRetentionCleanup = "ops.retention_cleanup" // scheduled cleanup of stale pass records
	FeatureOpsRedisEventBus    = "ops.redis_event_bus"   // fan events out over Redis Pub/Sub
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		profileOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureScoringRankDiffEvents] = &Feature{
		Name:           FeatureScoringRankDiffEvents,
		Description:    "Emit rank change events after each scoring pass",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureOpsRetentionCleanup] = &Feature{
		Name:           FeatureOpsRetentionCleanup,
		Description:    "Scheduled cleanup of pass records past retention",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureOpsRedisEventBus] = &Feature{
		Name:           FeatureOpsRedisEventBus,
		Description:    "Distribute events over Redis Pub/Sub instead of in-process only",
		Enabled:        false, // single-instance deployments don't need it
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_OPS_REDIS_EVENT_BUS=true
// Example: FEATURE_SCORING_RANK_DIFF_EVENTS=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "scoring.rank_diff_events" -> "FEATURE_SCORING_RANK_DIFF_EVENTS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check profile overrides first
	if ctx != nil && ctx.ProfileID != "" {
		if overrides, ok := ff.profileOverrides[ctx.ProfileID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.ProfileID != "" {
		return ff.isInRollout(ctx.ProfileID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a profile is in the rollout percentage.
// Uses consistent hashing so profiles stay in their bucket.
func (ff *FeatureFlags) isInRollout(profileID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(profileID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetProfileOverride sets a feature override for a specific profile.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetProfileOverride(profileID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.profileOverrides[profileID]; !ok {
		ff.profileOverrides[profileID] = make(map[string]bool)
	}
	ff.profileOverrides[profileID][featureName] = enabled
}

// ClearProfileOverrides removes all overrides for a profile.
func (ff *FeatureFlags) ClearProfileOverrides(profileID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.profileOverrides, profileID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
