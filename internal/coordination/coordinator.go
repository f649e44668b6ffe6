package coordination

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/exclusion"
	"github.com/adkinsd2261/gitcoord/internal/execshell"
)

const (
	defaultSettleDelayConstant              = time.Second
	sectionBusyReasonConstant               = "another operation in progress"
	sectionAcquisitionFailedTemplateMessage = "exclusive section unavailable"
	operationSucceededMessageConstant       = "git operation succeeded"
	operationFailedMessageConstant          = "git operation failed"
	operationBlockedMessageConstant         = "git operation blocked by cooldown"
	operationSkippedMessageConstant         = "git operation skipped, section busy"
	artifactsReclaimedMessageConstant       = "stale lock artifacts reclaimed before operation"
	statusPersistenceFailedMessageConstant  = "unable to persist coordinator status"
	sectionReleaseFailedMessageConstant     = "unable to release exclusive section"
	sectionRequiredMessageConstant          = "coordinator requires an exclusive section"
	historyRequiredMessageConstant          = "coordinator requires a history store"
	logFieldOperationNameConstant           = "operation_name"
	logFieldReasonConstant                  = "reason"
	logFieldRemovedArtifactsConstant        = "removed_artifacts"
	logFieldConsecutiveFailuresConstant     = "consecutive_failures"

	alertKindOperationFailureConstant = "GIT_OPERATION_FAILURE"
	alertKindTimeoutConstant          = "GIT_TIMEOUT"
	alertKindLaunchFailureConstant    = "GIT_LAUNCH_FAILURE"
)

// Construction errors for missing coordinator dependencies.
var (
	ErrSectionNotConfigured = errors.New(sectionRequiredMessageConstant)
	ErrHistoryNotConfigured = errors.New(historyRequiredMessageConstant)
)

// Outcome tags the definite result of a coordinated execution.
type Outcome string

// Execution outcomes. Blocked and skipped are expected conditions, not
// failures, and never advance the backoff state machine.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeBlocked Outcome = "blocked"
	OutcomeSkipped Outcome = "skipped"
)

// Operation is a caller-supplied function performing the actual external
// command sequence. It returns a success payload or an error; it is invoked
// only while the exclusive section is held.
type Operation func(executionContext context.Context) (string, error)

// ExecutionReport is returned to every caller of Execute.
type ExecutionReport struct {
	Outcome       Outcome
	OperationName string
	Result        string
	Message       string
}

// ExclusiveSection is the minimal interface required from exclusion.Section.
type ExclusiveSection interface {
	TryAcquire() error
	Release() error
}

// ArtifactReclaimer is the minimal interface required from reclaim.Reclaimer.
type ArtifactReclaimer interface {
	Reclaim(repositoryPath string) int
}

// StatusStore is the minimal interface required from HistoryStore.
type StatusStore interface {
	Load() Status
	Save(status Status) error
}

// AlertRecorder receives failure and recovery signals. Delivery thresholding
// is owned entirely by the implementation.
type AlertRecorder interface {
	RecordError(message string, kind string)
	RecordRecovery()
}

type noopAlertRecorder struct{}

func (noopAlertRecorder) RecordError(string, string) {}

func (noopAlertRecorder) RecordRecovery() {}

// Dependencies configures collaborators for a Coordinator.
type Dependencies struct {
	Logger         *zap.Logger
	Section        ExclusiveSection
	Reclaimer      ArtifactReclaimer
	History        StatusStore
	BackoffPolicy  BackoffPolicy
	Alerts         AlertRecorder
	RepositoryPath string
	SettleDelay    time.Duration
	Clock          func() time.Time
}

// Coordinator serializes git operations behind the exclusive section and
// applies the backoff policy to their outcomes.
type Coordinator struct {
	logger         *zap.Logger
	section        ExclusiveSection
	reclaimer      ArtifactReclaimer
	history        StatusStore
	backoffPolicy  BackoffPolicy
	alerts         AlertRecorder
	repositoryPath string
	settleDelay    time.Duration
	clock          func() time.Time
}

// NewCoordinator validates dependencies and constructs a Coordinator.
func NewCoordinator(dependencies Dependencies) (*Coordinator, error) {
	if dependencies.Section == nil {
		return nil, ErrSectionNotConfigured
	}
	if dependencies.History == nil {
		return nil, ErrHistoryNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	alerts := dependencies.Alerts
	if alerts == nil {
		alerts = noopAlertRecorder{}
	}

	backoffPolicy := dependencies.BackoffPolicy
	if backoffPolicy == (BackoffPolicy{}) {
		backoffPolicy = NewBackoffPolicy()
	}

	settleDelay := dependencies.SettleDelay
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelayConstant
	}

	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Coordinator{
		logger:         logger,
		section:        dependencies.Section,
		reclaimer:      dependencies.Reclaimer,
		history:        dependencies.History,
		backoffPolicy:  backoffPolicy,
		alerts:         alerts,
		repositoryPath: dependencies.RepositoryPath,
		settleDelay:    settleDelay,
		clock:          clock,
	}, nil
}

// Execute runs the supplied operation under coordination: cooldown check,
// non-blocking exclusive section acquisition, stale artifact reclamation,
// operation invocation, and history/backoff bookkeeping. The section is
// released unconditionally on every exit path past acquisition. Operation
// failures are never retried here; retry is the caller's responsibility,
// rate-limited by the blocked state.
func (coordinator *Coordinator) Execute(executionContext context.Context, operationName string, operation Operation) ExecutionReport {
	currentTime := coordinator.clock()
	status := coordinator.history.Load()

	if blocked, blockedReason := coordinator.backoffPolicy.IsBlocked(status, currentTime); blocked {
		coordinator.logger.Info(
			operationBlockedMessageConstant,
			zap.String(logFieldOperationNameConstant, operationName),
			zap.String(logFieldReasonConstant, blockedReason),
		)
		return ExecutionReport{Outcome: OutcomeBlocked, OperationName: operationName, Message: blockedReason}
	}

	if status.BlockedUntil != nil {
		status = coordinator.backoffPolicy.OnBlockExpired(status)
		coordinator.persistStatus(status)
	}

	if acquisitionError := coordinator.section.TryAcquire(); acquisitionError != nil {
		if errors.Is(acquisitionError, exclusion.ErrSectionBusy) {
			coordinator.logger.Debug(
				operationSkippedMessageConstant,
				zap.String(logFieldOperationNameConstant, operationName),
			)
			return ExecutionReport{Outcome: OutcomeSkipped, OperationName: operationName, Message: sectionBusyReasonConstant}
		}

		coordinator.logger.Warn(
			sectionAcquisitionFailedTemplateMessage,
			zap.String(logFieldOperationNameConstant, operationName),
			zap.Error(acquisitionError),
		)
		return ExecutionReport{Outcome: OutcomeSkipped, OperationName: operationName, Message: acquisitionError.Error()}
	}
	defer coordinator.releaseSection()

	// The pre-acquisition snapshot only backed the cooldown check; another
	// process may have completed a run while this one waited. All bookkeeping
	// starts from the record as it stands inside the section.
	status = coordinator.history.Load()

	coordinator.reclaimArtifacts(executionContext)

	operationResult, operationError := operation(executionContext)
	if operationError != nil {
		return coordinator.recordFailure(status, operationName, operationError)
	}

	return coordinator.recordSuccess(status, operationName, operationResult)
}

func (coordinator *Coordinator) reclaimArtifacts(executionContext context.Context) {
	if coordinator.reclaimer == nil {
		return
	}

	removedArtifacts := coordinator.reclaimer.Reclaim(coordinator.repositoryPath)
	if removedArtifacts == 0 {
		return
	}

	coordinator.logger.Info(
		artifactsReclaimedMessageConstant,
		zap.Int(logFieldRemovedArtifactsConstant, removedArtifacts),
	)

	// A just-killed external process may still hold handles on the removed
	// artifacts; give it a moment to fully exit before mutating the tree.
	settleTimer := time.NewTimer(coordinator.settleDelay)
	defer settleTimer.Stop()
	select {
	case <-settleTimer.C:
	case <-executionContext.Done():
	}
}

func (coordinator *Coordinator) recordSuccess(status Status, operationName string, operationResult string) ExecutionReport {
	completionTime := coordinator.clock()
	status = coordinator.backoffPolicy.OnSuccess(status)
	status.LastOperation = &RunRecord{
		OperationName: operationName,
		Timestamp:     completionTime,
		Success:       true,
	}
	coordinator.persistStatus(status)
	coordinator.alerts.RecordRecovery()

	coordinator.logger.Info(
		operationSucceededMessageConstant,
		zap.String(logFieldOperationNameConstant, operationName),
	)

	return ExecutionReport{Outcome: OutcomeSuccess, OperationName: operationName, Result: operationResult}
}

func (coordinator *Coordinator) recordFailure(status Status, operationName string, operationError error) ExecutionReport {
	failureTime := coordinator.clock()
	status = coordinator.backoffPolicy.OnFailure(status, failureTime)
	status.LastOperation = &RunRecord{
		OperationName: operationName,
		Timestamp:     failureTime,
		Success:       false,
		ErrorMessage:  operationError.Error(),
	}
	coordinator.persistStatus(status)
	coordinator.alerts.RecordError(operationError.Error(), classifyAlertKind(operationError))

	coordinator.logger.Error(
		operationFailedMessageConstant,
		zap.String(logFieldOperationNameConstant, operationName),
		zap.Int(logFieldConsecutiveFailuresConstant, status.ConsecutiveFailures),
		zap.Error(operationError),
	)

	return ExecutionReport{Outcome: OutcomeError, OperationName: operationName, Message: operationError.Error()}
}

// persistStatus degrades gracefully: a persistence failure never aborts the
// caller's operation, the in-memory status simply remains authoritative for
// this invocation.
func (coordinator *Coordinator) persistStatus(status Status) {
	if saveError := coordinator.history.Save(status); saveError != nil {
		coordinator.logger.Warn(statusPersistenceFailedMessageConstant, zap.Error(saveError))
	}
}

func (coordinator *Coordinator) releaseSection() {
	if releaseError := coordinator.section.Release(); releaseError != nil {
		coordinator.logger.Warn(sectionReleaseFailedMessageConstant, zap.Error(releaseError))
	}
}

func classifyAlertKind(operationError error) string {
	timeoutError := execshell.CommandTimeoutError{}
	if errors.As(operationError, &timeoutError) {
		return alertKindTimeoutConstant
	}

	launchError := execshell.CommandLaunchError{}
	if errors.As(operationError, &launchError) {
		return alertKindLaunchFailureConstant
	}

	return alertKindOperationFailureConstant
}
