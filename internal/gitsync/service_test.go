package gitsync_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/execshell"
	"github.com/adkinsd2261/gitcoord/internal/gitsync"
)

const (
	testRepositoryPathConstant = "/srv/managed-repo"
	testRemoteNameConstant     = "origin"
	testBranchNameConstant     = "main"
	testCommitMessageConstant  = "Automated commit"
	testDirtyStatusConstant    = " M notes/log.md\n?? notes/new.md\n"
	testPushFailureConstant    = "push rejected"
)

type fakeGitExecutor struct {
	statusOutput     string
	failOnSubcommand string
	observedCommands []execshell.CommandDetails
}

func (executor *fakeGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.observedCommands = append(executor.observedCommands, details)

	subcommand := ""
	if len(details.Arguments) > 0 {
		subcommand = details.Arguments[0]
	}

	if len(executor.failOnSubcommand) > 0 && subcommand == executor.failOnSubcommand {
		return execshell.ExecutionResult{}, errors.New(testPushFailureConstant)
	}

	if subcommand == "status" {
		return execshell.ExecutionResult{StandardOutput: executor.statusOutput}, nil
	}

	return execshell.ExecutionResult{}, nil
}

func newTestService(testInstance *testing.T, executor gitsync.GitExecutor) *gitsync.Service {
	testInstance.Helper()

	service, creationError := gitsync.NewService(zap.NewNop(), executor, gitsync.ServiceConfiguration{
		RepositoryPath: testRepositoryPathConstant,
		RemoteName:     testRemoteNameConstant,
		BranchName:     testBranchNameConstant,
		CommitMessage:  testCommitMessageConstant,
	})
	require.NoError(testInstance, creationError)

	return service
}

func TestNewServiceValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		executor      gitsync.GitExecutor
		expectedError error
	}{
		{
			name:          "missing_logger",
			executor:      &fakeGitExecutor{},
			expectedError: gitsync.ErrLoggerNotConfigured,
		},
		{
			name:          "missing_executor",
			logger:        zap.NewNop(),
			expectedError: gitsync.ErrGitExecutorNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, creationError := gitsync.NewService(testCase.logger, testCase.executor, gitsync.ServiceConfiguration{})
			require.Nil(testInstance, service)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestSyncCleanWorkingTreeIsSuccessfulNoOp(testInstance *testing.T) {
	executor := &fakeGitExecutor{statusOutput: "\n"}
	service := newTestService(testInstance, executor)

	resultMessage, syncError := service.Sync(context.Background())

	require.NoError(testInstance, syncError)
	require.Equal(testInstance, "no changes to commit", resultMessage)
	require.Len(testInstance, executor.observedCommands, 1)
	require.Equal(testInstance, []string{"status", "--porcelain"}, executor.observedCommands[0].Arguments)
}

func TestSyncDirtyWorkingTreeStagesCommitsAndPushes(testInstance *testing.T) {
	executor := &fakeGitExecutor{statusOutput: testDirtyStatusConstant}
	service := newTestService(testInstance, executor)

	resultMessage, syncError := service.Sync(context.Background())

	require.NoError(testInstance, syncError)
	require.Equal(testInstance, "committed and pushed to origin/main", resultMessage)
	require.Len(testInstance, executor.observedCommands, 4)

	require.Equal(testInstance, []string{"status", "--porcelain"}, executor.observedCommands[0].Arguments)
	require.Equal(testInstance, []string{"add", "."}, executor.observedCommands[1].Arguments)
	require.Equal(testInstance, []string{"commit", "-m", testCommitMessageConstant}, executor.observedCommands[2].Arguments)
	require.Equal(testInstance, []string{"push", testRemoteNameConstant, testBranchNameConstant}, executor.observedCommands[3].Arguments)

	for _, observedCommand := range executor.observedCommands {
		require.Equal(testInstance, testRepositoryPathConstant, observedCommand.WorkingDirectory)
		require.Positive(testInstance, observedCommand.Timeout)
	}
}

func TestSyncPropagatesPushFailure(testInstance *testing.T) {
	executor := &fakeGitExecutor{statusOutput: testDirtyStatusConstant, failOnSubcommand: "push"}
	service := newTestService(testInstance, executor)

	resultMessage, syncError := service.Sync(context.Background())

	require.Error(testInstance, syncError)
	require.Equal(testInstance, testPushFailureConstant, syncError.Error())
	require.Empty(testInstance, resultMessage)
	require.Len(testInstance, executor.observedCommands, 4)
}

func TestSyncStopsAtFirstFailedStep(testInstance *testing.T) {
	executor := &fakeGitExecutor{statusOutput: testDirtyStatusConstant, failOnSubcommand: "add"}
	service := newTestService(testInstance, executor)

	_, syncError := service.Sync(context.Background())

	require.Error(testInstance, syncError)
	require.Len(testInstance, executor.observedCommands, 2)
}

func TestWorkingTreeStatusTrimsWhitespace(testInstance *testing.T) {
	executor := &fakeGitExecutor{statusOutput: "  " + testDirtyStatusConstant}
	service := newTestService(testInstance, executor)

	workingTreeStatus, statusError := service.WorkingTreeStatus(context.Background())

	require.NoError(testInstance, statusError)
	require.Equal(testInstance, strings.TrimSpace(testDirtyStatusConstant), workingTreeStatus)
}
