package execshell

import (
	"context"
	"strings"
	"time"
)

const (
	gitCommandNameConstant                = "git"
	commandLabelJoinSeparatorConstant     = " "
	defaultWorkingDirectoryLabelConstant  = "current directory"
	commandLabelWithDirectoryTemplateTail = " (in %s)"
)

// CommandName identifies a supported executable.
type CommandName string

// CommandGit names the git executable.
const CommandGit CommandName = CommandName(gitCommandNameConstant)

// CommandDetails describes a single git invocation: its arguments, the
// repository it runs in, and the deadline bounding it.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
	Timeout          time.Duration
}

// ShellCommand combines a CommandName with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Label renders the command name and arguments for logs and error messages.
func (command ShellCommand) Label() string {
	labelParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(labelParts, commandLabelJoinSeparatorConstant)
}

// WorkingDirectoryLabel names the directory a command executes in.
func (command ShellCommand) WorkingDirectoryLabel() string {
	if len(command.Details.WorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return command.Details.WorkingDirectory
}
