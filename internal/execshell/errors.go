package execshell

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor requires a logger"
	commandRunnerNotConfiguredMessageConstant = "shell executor requires a command runner"
	commandFailedTemplateConstant             = "%s failed with exit code %d%s"
	commandTimeoutTemplateConstant            = "%s timed out after %s"
	commandLaunchTemplateConstant             = "%s could not be launched: %s"
	commandExecutionTemplateConstant          = "%s failed: %s"
	standardErrorSuffixTemplateConstant       = ": %s"
	emptyStringConstant                       = ""
)

// Sentinel errors reported during executor construction.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command completing with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error renders the failure including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := emptyStringConstant
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedTemplateConstant, failure.Command.Label(), failure.Result.ExitCode, standardErrorSuffix)
}

// CommandTimeoutError reports a command exceeding its configured timeout.
type CommandTimeoutError struct {
	Command ShellCommand
	Timeout time.Duration
}

// Error renders the timeout failure.
func (failure CommandTimeoutError) Error() string {
	return fmt.Sprintf(commandTimeoutTemplateConstant, failure.Command.Label(), failure.Timeout)
}

// CommandLaunchError reports that the target executable could not be started.
type CommandLaunchError struct {
	Command ShellCommand
	Cause   error
}

// Error renders the launch failure.
func (failure CommandLaunchError) Error() string {
	return fmt.Sprintf(commandLaunchTemplateConstant, failure.Command.Label(), failure.Cause)
}

// Unwrap exposes the underlying launch failure.
func (failure CommandLaunchError) Unwrap() error {
	return failure.Cause
}

// CommandExecutionError reports unexpected runner failures that are neither
// exit codes, timeouts, nor launch failures.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error renders the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionTemplateConstant, failure.Command.Label(), failure.Cause)
}

// Unwrap exposes the underlying execution failure.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}
