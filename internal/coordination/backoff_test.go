package coordination_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adkinsd2261/gitcoord/internal/coordination"
)

const (
	testBlockedReasonFragmentConstant = "consecutive failures"
)

func TestBackoffPolicyCooldownDurationMonotonicity(testInstance *testing.T) {
	policy := coordination.NewBackoffPolicy()

	testCases := []struct {
		name                string
		consecutiveFailures int
		expectedCooldown    time.Duration
	}{
		{name: "one_failure", consecutiveFailures: 1, expectedCooldown: 0},
		{name: "two_failures", consecutiveFailures: 2, expectedCooldown: 0},
		{name: "three_failures", consecutiveFailures: 3, expectedCooldown: 6 * time.Minute},
		{name: "four_failures", consecutiveFailures: 4, expectedCooldown: 8 * time.Minute},
		{name: "five_failures", consecutiveFailures: 5, expectedCooldown: 10 * time.Minute},
		{name: "seven_failures", consecutiveFailures: 7, expectedCooldown: 14 * time.Minute},
		{name: "eight_failures_reaches_cap", consecutiveFailures: 8, expectedCooldown: 15 * time.Minute},
		{name: "twenty_failures_stays_capped", consecutiveFailures: 20, expectedCooldown: 15 * time.Minute},
	}

	previousCooldown := time.Duration(0)
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			cooldownDuration := policy.CooldownDuration(testCase.consecutiveFailures)
			require.Equal(testInstance, testCase.expectedCooldown, cooldownDuration)
			require.GreaterOrEqual(testInstance, cooldownDuration, previousCooldown)
			previousCooldown = cooldownDuration
		})
	}
}

func TestBackoffPolicyOnFailureTransitions(testInstance *testing.T) {
	policy := coordination.NewBackoffPolicy()
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	status := coordination.NewReadyStatus()

	status = policy.OnFailure(status, currentTime)
	require.Equal(testInstance, 1, status.ConsecutiveFailures)
	require.Equal(testInstance, coordination.StateFailed, status.State)
	require.Nil(testInstance, status.BlockedUntil)

	status = policy.OnFailure(status, currentTime)
	require.Equal(testInstance, 2, status.ConsecutiveFailures)
	require.Equal(testInstance, coordination.StateFailed, status.State)
	require.Nil(testInstance, status.BlockedUntil)

	status = policy.OnFailure(status, currentTime)
	require.Equal(testInstance, 3, status.ConsecutiveFailures)
	require.Equal(testInstance, coordination.StateBlocked, status.State)
	require.NotNil(testInstance, status.BlockedUntil)
	require.True(testInstance, status.BlockedUntil.Equal(currentTime.Add(6*time.Minute)))
}

func TestBackoffPolicyIsBlocked(testInstance *testing.T) {
	policy := coordination.NewBackoffPolicy()
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	blockedUntil := currentTime.Add(time.Minute)
	blockedStatus := coordination.Status{
		ConsecutiveFailures: 3,
		BlockedUntil:        &blockedUntil,
		State:               coordination.StateBlocked,
	}

	blocked, blockedReason := policy.IsBlocked(blockedStatus, currentTime)
	require.True(testInstance, blocked)
	require.Contains(testInstance, blockedReason, testBlockedReasonFragmentConstant)

	expiredBlocked, _ := policy.IsBlocked(blockedStatus, currentTime.Add(2*time.Minute))
	require.False(testInstance, expiredBlocked)

	readyBlocked, readyReason := policy.IsBlocked(coordination.NewReadyStatus(), currentTime)
	require.False(testInstance, readyBlocked)
	require.Empty(testInstance, readyReason)
}

func TestBackoffPolicyOnBlockExpiredAndOnSuccess(testInstance *testing.T) {
	policy := coordination.NewBackoffPolicy()
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

	blockedUntil := currentTime.Add(-time.Minute)
	expiredStatus := coordination.Status{
		ConsecutiveFailures: 5,
		BlockedUntil:        &blockedUntil,
		State:               coordination.StateBlocked,
	}

	clearedStatus := policy.OnBlockExpired(expiredStatus)
	require.Zero(testInstance, clearedStatus.ConsecutiveFailures)
	require.Nil(testInstance, clearedStatus.BlockedUntil)
	require.Equal(testInstance, coordination.StateReady, clearedStatus.State)

	succeededStatus := policy.OnSuccess(expiredStatus)
	require.Zero(testInstance, succeededStatus.ConsecutiveFailures)
	require.Nil(testInstance, succeededStatus.BlockedUntil)
	require.Equal(testInstance, coordination.StateSuccess, succeededStatus.State)
}
