package coordination

import (
	"fmt"
	"time"
)

const (
	defaultFailureThresholdConstant = 3
	defaultBackoffStepConstant      = 2 * time.Minute
	defaultBackoffCapConstant       = 15 * time.Minute
	blockedReasonTemplateConstant   = "operations blocked until %s after %d consecutive failures"
	blockedTimestampLayoutConstant  = time.RFC3339
)

// BackoffPolicy maps consecutive failure counts to cooldown durations. The
// zero value selects the defaults observed to break git death loops: block
// after three consecutive failures, grow the cooldown by two minutes per
// additional failure, and cap it at fifteen minutes. The policy is pure;
// callers persist the statuses it returns.
type BackoffPolicy struct {
	FailureThreshold int
	BackoffStep      time.Duration
	BackoffCap       time.Duration
}

// NewBackoffPolicy returns a policy carrying the default thresholds.
func NewBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		FailureThreshold: defaultFailureThresholdConstant,
		BackoffStep:      defaultBackoffStepConstant,
		BackoffCap:       defaultBackoffCapConstant,
	}
}

// IsBlocked reports whether the status carries an unexpired cooldown and, if
// so, a human-readable reason.
func (policy BackoffPolicy) IsBlocked(status Status, currentTime time.Time) (bool, string) {
	if status.BlockedUntil == nil {
		return false, ""
	}
	if !currentTime.Before(*status.BlockedUntil) {
		return false, ""
	}

	reason := fmt.Sprintf(
		blockedReasonTemplateConstant,
		status.BlockedUntil.Format(blockedTimestampLayoutConstant),
		status.ConsecutiveFailures,
	)
	return true, reason
}

// OnBlockExpired clears an expired cooldown and resets the failure counter.
// Callers apply and persist this exactly once per expiry observation.
func (policy BackoffPolicy) OnBlockExpired(status Status) Status {
	status.BlockedUntil = nil
	status.ConsecutiveFailures = 0
	status.State = StateReady
	return status
}

// OnFailure increments the consecutive failure counter and, once the failure
// threshold is reached, schedules a cooldown ending at
// currentTime + CooldownDuration.
func (policy BackoffPolicy) OnFailure(status Status, currentTime time.Time) Status {
	status.ConsecutiveFailures++

	cooldownDuration := policy.CooldownDuration(status.ConsecutiveFailures)
	if cooldownDuration > 0 {
		blockedUntil := currentTime.Add(cooldownDuration)
		status.BlockedUntil = &blockedUntil
		status.State = StateBlocked
		return status
	}

	status.BlockedUntil = nil
	status.State = StateFailed
	return status
}

// OnSuccess resets the failure counter and clears any cooldown.
func (policy BackoffPolicy) OnSuccess(status Status) Status {
	status.ConsecutiveFailures = 0
	status.BlockedUntil = nil
	status.State = StateSuccess
	return status
}

// CooldownDuration computes the cooldown applied at the given consecutive
// failure count: zero below the failure threshold, otherwise the failure
// count multiplied by the backoff step, capped at the backoff cap. The result
// is monotonically non-decreasing in the failure count.
func (policy BackoffPolicy) CooldownDuration(consecutiveFailures int) time.Duration {
	failureThreshold := policy.FailureThreshold
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThresholdConstant
	}
	backoffStep := policy.BackoffStep
	if backoffStep <= 0 {
		backoffStep = defaultBackoffStepConstant
	}
	backoffCap := policy.BackoffCap
	if backoffCap <= 0 {
		backoffCap = defaultBackoffCapConstant
	}

	if consecutiveFailures < failureThreshold {
		return 0
	}

	cooldownDuration := time.Duration(consecutiveFailures) * backoffStep
	if cooldownDuration > backoffCap {
		cooldownDuration = backoffCap
	}
	return cooldownDuration
}
