package execshell

import (
	"context"
	"errors"
	"os/exec"

	"go.uber.org/zap"
)

const (
	commandStartedMessageConstant   = "external command started"
	commandCompletedMessageConstant = "external command completed"
	commandFailedMessageConstant    = "external command failed"
	logFieldCommandConstant         = "command"
	logFieldDirectoryConstant       = "directory"
	logFieldExitCodeConstant        = "exit_code"
	logFieldTimeoutConstant         = "timeout"
)

// ShellExecutor runs shell commands through a CommandRunner while logging
// lifecycle events and classifying failures.
type ShellExecutor struct {
	logger        *zap.Logger
	commandRunner CommandRunner
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{logger: logger, commandRunner: commandRunner}, nil
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs an arbitrary shell command with the configured runner.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	return executor.execute(executionContext, command)
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	boundedContext := executionContext
	var cancelBoundedContext context.CancelFunc
	if command.Details.Timeout > 0 {
		boundedContext, cancelBoundedContext = context.WithTimeout(executionContext, command.Details.Timeout)
		defer cancelBoundedContext()
	}

	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, command.Label()),
		zap.String(logFieldDirectoryConstant, command.WorkingDirectoryLabel()),
		zap.Duration(logFieldTimeoutConstant, command.Details.Timeout),
	)

	executionResult, runError := executor.commandRunner.Run(boundedContext, command)

	if timeoutError, timedOut := executor.classifyTimeout(boundedContext, command); timedOut {
		executor.logFailure(command, timeoutError)
		return ExecutionResult{}, timeoutError
	}

	if runError != nil {
		classifiedError := executor.classifyRunError(command, runError)
		executor.logFailure(command, classifiedError)
		return ExecutionResult{}, classifiedError
	}

	if executionResult.ExitCode != 0 {
		failedError := CommandFailedError{Command: command, Result: executionResult}
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldCommandConstant, command.Label()),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return executionResult, failedError
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, command.Label()),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	return executionResult, nil
}

// classifyTimeout detects an expired command deadline. Timed-out processes are
// killed by os/exec and surface as ordinary exit failures, so the bounded
// context is consulted directly instead of the runner error.
func (executor *ShellExecutor) classifyTimeout(boundedContext context.Context, command ShellCommand) (error, bool) {
	if command.Details.Timeout <= 0 {
		return nil, false
	}
	if !errors.Is(boundedContext.Err(), context.DeadlineExceeded) {
		return nil, false
	}
	return CommandTimeoutError{Command: command, Timeout: command.Details.Timeout}, true
}

func (executor *ShellExecutor) classifyRunError(command ShellCommand, runError error) error {
	launchError := &exec.Error{}
	if errors.As(runError, &launchError) {
		return CommandLaunchError{Command: command, Cause: runError}
	}
	return CommandExecutionError{Command: command, Cause: runError}
}

func (executor *ShellExecutor) logFailure(command ShellCommand, failure error) {
	executor.logger.Debug(
		commandFailedMessageConstant,
		zap.String(logFieldCommandConstant, command.Label()),
		zap.Error(failure),
	)
}
