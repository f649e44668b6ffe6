package coordination_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adkinsd2261/gitcoord/internal/coordination"
)

func TestSettingsNormalizedFillsDefaults(testInstance *testing.T) {
	normalizedSettings := coordination.Settings{}.Normalized()

	require.Equal(testInstance, coordination.DefaultSettings(), normalizedSettings)
}

func TestSettingsNormalizedPreservesExplicitValues(testInstance *testing.T) {
	explicitSettings := coordination.Settings{
		RepositoryPath:         "/srv/managed-repo",
		StatusFilePath:         "state/status.json",
		StaleArtifactThreshold: 10 * time.Minute,
		FailureThreshold:       5,
		BackoffStep:            time.Minute,
		BackoffCap:             30 * time.Minute,
		SettleDelay:            2 * time.Second,
	}

	require.Equal(testInstance, explicitSettings, explicitSettings.Normalized())
}

func TestSettingsBackoffPolicyDerivation(testInstance *testing.T) {
	derivedPolicy := coordination.Settings{
		FailureThreshold: 5,
		BackoffStep:      time.Minute,
		BackoffCap:       30 * time.Minute,
	}.BackoffPolicy()

	require.Equal(testInstance, 5, derivedPolicy.FailureThreshold)
	require.Equal(testInstance, time.Minute, derivedPolicy.BackoffStep)
	require.Equal(testInstance, 30*time.Minute, derivedPolicy.BackoffCap)

	zeroValuePolicy := coordination.Settings{}.BackoffPolicy()
	require.Equal(testInstance, coordination.NewBackoffPolicy(), zeroValuePolicy)
}

func TestDefaultConfigurationValuesArePrefixed(testInstance *testing.T) {
	defaultValues := coordination.DefaultConfigurationValues("coordinator")

	require.Equal(testInstance, ".", defaultValues["coordinator.repository_path"])
	require.Equal(testInstance, "git_coordinator_status.json", defaultValues["coordinator.status_file"])
	require.Equal(testInstance, "5m", defaultValues["coordinator.stale_artifact_threshold"])
	require.Equal(testInstance, 3, defaultValues["coordinator.failure_threshold"])
	require.Equal(testInstance, "2m", defaultValues["coordinator.backoff_step"])
	require.Equal(testInstance, "15m", defaultValues["coordinator.backoff_cap"])
}
