package gitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/execshell"
)

const (
	gitStatusSubcommandConstant         = "status"
	gitStatusPorcelainFlagConstant      = "--porcelain"
	gitAddSubcommandConstant            = "add"
	gitAddAllPathspecConstant           = "."
	gitCommitSubcommandConstant         = "commit"
	gitMessageFlagConstant              = "-m"
	gitPushSubcommandConstant           = "push"
	statusCommandTimeoutConstant        = 10 * time.Second
	stageCommandTimeoutConstant         = 30 * time.Second
	commitCommandTimeoutConstant        = 30 * time.Second
	pushCommandTimeoutConstant          = 60 * time.Second
	noChangesResultMessageConstant      = "no changes to commit"
	syncCompletedResultTemplateConstant = "committed and pushed to %s/%s"
	serviceLoggerRequiredMessage        = "sync service requires a logger"
	serviceExecutorRequiredMessage      = "sync service requires a git executor"
	workingTreeCleanMessageConstant     = "working tree clean, nothing to sync"
	changesDetectedMessageConstant      = "working tree changes detected, syncing"
	logFieldRemoteConstant              = "remote"
	logFieldBranchConstant              = "branch"
)

// Construction errors for missing service dependencies.
var (
	ErrLoggerNotConfigured      = errors.New(serviceLoggerRequiredMessage)
	ErrGitExecutorNotConfigured = errors.New(serviceExecutorRequiredMessage)
)

// GitExecutor is the minimal interface required from execshell.ShellExecutor.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ServiceConfiguration describes the repository and branch a service syncs.
type ServiceConfiguration struct {
	RepositoryPath string
	RemoteName     string
	BranchName     string
	CommitMessage  string
}

// Service performs the stage, commit, and push sequence. It carries no retry
// or locking logic of its own; callers run Sync through the coordinator.
type Service struct {
	logger        *zap.Logger
	gitExecutor   GitExecutor
	configuration ServiceConfiguration
}

// NewService validates dependencies and constructs a Service.
func NewService(logger *zap.Logger, gitExecutor GitExecutor, configuration ServiceConfiguration) (*Service, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	return &Service{logger: logger, gitExecutor: gitExecutor, configuration: configuration}, nil
}

// Sync stages all changes, commits them, and pushes the tracked branch. A
// clean working tree is reported as a successful no-op, not an error, so the
// coordinator treats it as a recovery.
func (service *Service) Sync(executionContext context.Context) (string, error) {
	workingTreeStatus, statusError := service.WorkingTreeStatus(executionContext)
	if statusError != nil {
		return "", statusError
	}

	if len(workingTreeStatus) == 0 {
		service.logger.Info(workingTreeCleanMessageConstant)
		return noChangesResultMessageConstant, nil
	}

	service.logger.Info(
		changesDetectedMessageConstant,
		zap.String(logFieldRemoteConstant, service.configuration.RemoteName),
		zap.String(logFieldBranchConstant, service.configuration.BranchName),
	)

	if _, stageError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitAddAllPathspecConstant},
		WorkingDirectory: service.configuration.RepositoryPath,
		Timeout:          stageCommandTimeoutConstant,
	}); stageError != nil {
		return "", stageError
	}

	if _, commitError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitMessageFlagConstant, service.configuration.CommitMessage},
		WorkingDirectory: service.configuration.RepositoryPath,
		Timeout:          commitCommandTimeoutConstant,
	}); commitError != nil {
		return "", commitError
	}

	if _, pushError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushSubcommandConstant, service.configuration.RemoteName, service.configuration.BranchName},
		WorkingDirectory: service.configuration.RepositoryPath,
		Timeout:          pushCommandTimeoutConstant,
	}); pushError != nil {
		return "", pushError
	}

	return service.syncCompletedMessage(), nil
}

// WorkingTreeStatus reports the porcelain status output with surrounding
// whitespace trimmed. Empty output means a clean tree.
func (service *Service) WorkingTreeStatus(executionContext context.Context) (string, error) {
	statusResult, statusError := service.gitExecutor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitStatusSubcommandConstant, gitStatusPorcelainFlagConstant},
		WorkingDirectory: service.configuration.RepositoryPath,
		Timeout:          statusCommandTimeoutConstant,
	})
	if statusError != nil {
		return "", statusError
	}

	return strings.TrimSpace(statusResult.StandardOutput), nil
}

func (service *Service) syncCompletedMessage() string {
	return fmt.Sprintf(syncCompletedResultTemplateConstant, service.configuration.RemoteName, service.configuration.BranchName)
}
