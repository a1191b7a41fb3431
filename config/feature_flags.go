package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles.
// Every flag can be overridden with FEATURE_<NAME>=true|false.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// Predefined feature flag names.
const (
	// FeatureDocumentContext fetches document text for the analysis prompt.
	FeatureDocumentContext = "document_context"

	// FeatureDocumentCache caches extracted document text in Redis.
	FeatureDocumentCache = "document_cache"

	// FeatureChatAssistant mounts the chat endpoint.
	FeatureChatAssistant = "chat_assistant"

	// FeatureAutoMigrate applies database migrations on startup.
	FeatureAutoMigrate = "auto_migrate"
)

// LoadFeatureFlags creates flags with defaults and applies env overrides.
func LoadFeatureFlags() *FeatureFlags {
	ff := NewFeatureFlags()
	ff.loadFromEnvironment()
	return ff
}

// NewFeatureFlags creates flags with default values only.
func NewFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureDocumentContext] = &Feature{
		Name:        FeatureDocumentContext,
		Description: "Fetch course document text for analysis prompts",
		Enabled:     true,
	}
	ff.features[FeatureDocumentCache] = &Feature{
		Name:        FeatureDocumentCache,
		Description: "Cache extracted document text in Redis",
		Enabled:     true,
	}
	ff.features[FeatureChatAssistant] = &Feature{
		Name:        FeatureChatAssistant,
		Description: "Expose the student chat assistant endpoint",
		Enabled:     true,
	}
	ff.features[FeatureAutoMigrate] = &Feature{
		Name:        FeatureAutoMigrate,
		Description: "Apply database migrations on startup",
		Enabled:     false,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Example: FEATURE_DOCUMENT_CACHE=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "document_cache" -> "FEATURE_DOCUMENT_CACHE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled. Unknown features are disabled.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// Set enables or disables a feature.
func (ff *FeatureFlags) Set(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Enabled = enabled
	return nil
}

// GetAllFeatures returns a copy of all features sorted by name.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make([]Feature, 0, len(ff.features))
	for _, v := range ff.features {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// --- Errors ---

// ErrFeatureNotFound is returned for an unknown feature name.
var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
