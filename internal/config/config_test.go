package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPort_OneValuePerRole(t *testing.T) {
	cases := map[Role]int{
		RoleCoordinator: 8000,
		RoleRetrieval:   8001,
		RoleFilter:      8002,
		RoleSummarise:   8003,
		RoleAlert:       8004,
	}
	for role, want := range cases {
		assert.Equal(t, want, DefaultPort(role))
	}
}

func TestLoad_AppliesDefaultsWhenUnset(t *testing.T) {
	cfg := Load(RoleFilter)

	assert.Equal(t, RoleFilter, cfg.Role)
	assert.Equal(t, 8002, cfg.Port)
	assert.Equal(t, 0.7, cfg.RelevanceThreshold)
	assert.Equal(t, 0.4, cfg.KeywordWeight)
	assert.Equal(t, 0.6, cfg.SemanticWeight)
	assert.Equal(t, 20, cfg.BatchMaxItems)
	assert.Equal(t, 4, cfg.MonitoringIntervalHours)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.AnthropicModel)
	assert.Equal(t, "https://oauth.reddit.com", cfg.RedditBaseURL)
	assert.NotEmpty(t, cfg.Breakers)
	assert.Contains(t, cfg.Breakers, "reddit-api")
	assert.Contains(t, cfg.Breakers, "llm-api")
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RELEVANCE_THRESHOLD", "0.55")
	t.Setenv("MONITORING_TOPICS", " go , rust ,, kubernetes")
	t.Setenv("ALERT_EMAIL_RECIPIENTS", "a@example.com,b@example.com")
	t.Setenv("MONITORING_CYCLE_LOCK_TTL", "10m")

	cfg := Load(RoleCoordinator)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 0.55, cfg.RelevanceThreshold)
	assert.Equal(t, []string{"go", "rust", "kubernetes"}, cfg.MonitoringTopics)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AlertRecipients)
	assert.Equal(t, 10*time.Minute, cfg.MonitoringCycleLockTTL)
}

func TestLoad_PeerURLsDefaultToLocalhostPorts(t *testing.T) {
	cfg := Load(RoleAlert)
	assert.Equal(t, "http://localhost:8000", cfg.PeerURLs[RoleCoordinator])
	assert.Equal(t, "http://localhost:8001", cfg.PeerURLs[RoleRetrieval])
	assert.Equal(t, "http://localhost:8004", cfg.PeerURLs[RoleAlert])
}

func TestEnvCSVOr_EmptyFieldsAreDropped(t *testing.T) {
	t.Setenv("MONITORING_TOPICS", "a,, b ,")
	cfg := Load(RoleFilter)
	assert.Equal(t, []string{"a", "b"}, cfg.MonitoringTopics)
}

func TestEnvCSVOr_UnsetReturnsFallback(t *testing.T) {
	cfg := Load(RoleFilter)
	assert.Nil(t, cfg.MonitoringTopics)
}
