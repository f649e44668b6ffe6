package coordination

import (
	"strings"
	"time"
)

const (
	repositoryPathConfigKeyConstant         = "repository_path"
	statusFileConfigKeyConstant             = "status_file"
	lockDirectoryConfigKeyConstant          = "lock_directory"
	staleArtifactThresholdConfigKeyConstant = "stale_artifact_threshold"
	failureThresholdConfigKeyConstant       = "failure_threshold"
	backoffStepConfigKeyConstant            = "backoff_step"
	backoffCapConfigKeyConstant             = "backoff_cap"
	settleDelayConfigKeyConstant            = "settle_delay"
	configurationKeySeparatorConstant       = "."
	defaultRepositoryPathConstant           = "."
	defaultStaleThresholdStringConstant     = "5m"
	defaultBackoffStepStringConstant        = "2m"
	defaultBackoffCapStringConstant         = "15m"
	defaultSettleDelayStringConstant        = "1s"
	defaultStaleArtifactThresholdConstant   = 300 * time.Second
)

// Settings captures the environment-level configuration consumed by the
// coordinator. The staleness threshold and backoff constants default to the
// empirically chosen values but remain overridable, since the right values
// depend on the external tool's typical operation latency.
type Settings struct {
	RepositoryPath         string        `mapstructure:"repository_path"`
	StatusFilePath         string        `mapstructure:"status_file"`
	LockDirectory          string        `mapstructure:"lock_directory"`
	StaleArtifactThreshold time.Duration `mapstructure:"stale_artifact_threshold"`
	FailureThreshold       int           `mapstructure:"failure_threshold"`
	BackoffStep            time.Duration `mapstructure:"backoff_step"`
	BackoffCap             time.Duration `mapstructure:"backoff_cap"`
	SettleDelay            time.Duration `mapstructure:"settle_delay"`
}

// DefaultSettings returns the coordinator defaults.
func DefaultSettings() Settings {
	return Settings{
		RepositoryPath:         defaultRepositoryPathConstant,
		StatusFilePath:         defaultStatusFileNameConstant,
		StaleArtifactThreshold: defaultStaleArtifactThresholdConstant,
		FailureThreshold:       defaultFailureThresholdConstant,
		BackoffStep:            defaultBackoffStepConstant,
		BackoffCap:             defaultBackoffCapConstant,
		SettleDelay:            defaultSettleDelayConstant,
	}
}

// BackoffPolicy derives the backoff policy described by the settings.
func (settings Settings) BackoffPolicy() BackoffPolicy {
	policy := NewBackoffPolicy()
	if settings.FailureThreshold > 0 {
		policy.FailureThreshold = settings.FailureThreshold
	}
	if settings.BackoffStep > 0 {
		policy.BackoffStep = settings.BackoffStep
	}
	if settings.BackoffCap > 0 {
		policy.BackoffCap = settings.BackoffCap
	}
	return policy
}

// Normalized fills empty fields with defaults.
func (settings Settings) Normalized() Settings {
	defaults := DefaultSettings()
	if len(strings.TrimSpace(settings.RepositoryPath)) == 0 {
		settings.RepositoryPath = defaults.RepositoryPath
	}
	if len(strings.TrimSpace(settings.StatusFilePath)) == 0 {
		settings.StatusFilePath = defaults.StatusFilePath
	}
	if settings.StaleArtifactThreshold <= 0 {
		settings.StaleArtifactThreshold = defaults.StaleArtifactThreshold
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = defaults.FailureThreshold
	}
	if settings.BackoffStep <= 0 {
		settings.BackoffStep = defaults.BackoffStep
	}
	if settings.BackoffCap <= 0 {
		settings.BackoffCap = defaults.BackoffCap
	}
	if settings.SettleDelay <= 0 {
		settings.SettleDelay = defaults.SettleDelay
	}
	return settings
}

// DefaultConfigurationValues exposes coordinator defaults for configuration
// loading under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	prefixedKey := func(configurationKey string) string {
		return configurationKeyPrefix + configurationKeySeparatorConstant + configurationKey
	}

	return map[string]any{
		prefixedKey(repositoryPathConfigKeyConstant):         defaultRepositoryPathConstant,
		prefixedKey(statusFileConfigKeyConstant):             defaultStatusFileNameConstant,
		prefixedKey(lockDirectoryConfigKeyConstant):          "",
		prefixedKey(staleArtifactThresholdConfigKeyConstant): defaultStaleThresholdStringConstant,
		prefixedKey(failureThresholdConfigKeyConstant):       defaultFailureThresholdConstant,
		prefixedKey(backoffStepConfigKeyConstant):            defaultBackoffStepStringConstant,
		prefixedKey(backoffCapConfigKeyConstant):             defaultBackoffCapStringConstant,
		prefixedKey(settleDelayConfigKeyConstant):            defaultSettleDelayStringConstant,
	}
}
