package gitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/alerting"
	"github.com/adkinsd2261/gitcoord/internal/coordination"
	"github.com/adkinsd2261/gitcoord/internal/exclusion"
	"github.com/adkinsd2261/gitcoord/internal/execshell"
	"github.com/adkinsd2261/gitcoord/internal/reclaim"
)

const (
	commandUseConstant                    = "sync"
	commandShortDescriptionConstant       = "Stage, commit, and push repository changes under coordination"
	commandLongDescriptionConstant        = "sync runs git add, commit, and push through the operation coordinator: stale lock artifacts are reclaimed first, concurrent invocations are skipped, and repeated failures trigger an escalating cooldown."
	unexpectedArgumentsMessageConstant    = "sync does not accept positional arguments"
	flagRepositoryNameConstant            = "repository"
	flagRepositoryDescriptionConstant     = "Path of the repository to synchronize"
	flagRemoteNameConstant                = "remote"
	flagRemoteDescriptionConstant         = "Name of the remote receiving the push"
	flagBranchNameConstant                = "branch"
	flagBranchDescriptionConstant         = "Name of the branch to push"
	flagMessageNameConstant               = "message"
	flagMessageDescriptionConstant        = "Commit message for the synchronized changes"
	syncOperationNameConstant             = "add_commit_push"
	commandExecutionErrorTemplateConstant = "sync failed: %s"
	outcomeReportTemplateConstant         = "%s: %s\n"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the sync command configuration.
type ConfigurationProvider func() CommandConfiguration

// CoordinatorSettingsProvider supplies coordinator settings.
type CoordinatorSettingsProvider func() coordination.Settings

// AlertingConfigurationProvider supplies alerting settings.
type AlertingConfigurationProvider func() alerting.Configuration

// CommandBuilder assembles the Cobra command for coordinated synchronization.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         ConfigurationProvider
	CoordinatorSettingsProvider   CoordinatorSettingsProvider
	AlertingConfigurationProvider AlertingConfigurationProvider
	GitExecutor                   GitExecutor
	Coordinator                   ExecutionCoordinator
}

// ExecutionCoordinator is the minimal interface required from
// coordination.Coordinator.
type ExecutionCoordinator interface {
	Execute(executionContext context.Context, operationName string, operation coordination.Operation) coordination.ExecutionReport
}

// Build constructs the sync command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().String(flagRemoteNameConstant, "", flagRemoteDescriptionConstant)
	command.Flags().String(flagBranchNameConstant, "", flagBranchDescriptionConstant)
	command.Flags().String(flagMessageNameConstant, "", flagMessageDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	logger := builder.resolveLogger()
	settings := builder.resolveCoordinatorSettings()
	serviceConfiguration := builder.resolveServiceConfiguration(command, settings)

	gitExecutor, executorError := builder.resolveGitExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(logger, gitExecutor, serviceConfiguration)
	if serviceError != nil {
		return serviceError
	}

	// Flag overrides apply to the coordinator as well: the exclusive section
	// and reclaimer are scoped to the repository actually being synchronized.
	settings.RepositoryPath = serviceConfiguration.RepositoryPath

	coordinator, coordinatorError := builder.resolveCoordinator(logger, settings)
	if coordinatorError != nil {
		return coordinatorError
	}

	report := coordinator.Execute(command.Context(), syncOperationNameConstant, service.Sync)

	switch report.Outcome {
	case coordination.OutcomeSuccess:
		fmt.Fprintf(command.OutOrStdout(), outcomeReportTemplateConstant, report.Outcome, report.Result)
		return nil
	case coordination.OutcomeError:
		return fmt.Errorf(commandExecutionErrorTemplateConstant, report.Message)
	default:
		fmt.Fprintf(command.OutOrStdout(), outcomeReportTemplateConstant, report.Outcome, report.Message)
		return nil
	}
}

func (builder *CommandBuilder) resolveServiceConfiguration(command *cobra.Command, settings coordination.Settings) ServiceConfiguration {
	configuration := builder.resolveCommandConfiguration()

	repositoryPath := settings.RepositoryPath
	if flagValue := flagStringValue(command, flagRepositoryNameConstant); len(flagValue) > 0 {
		repositoryPath = flagValue
	}

	remoteName := configuration.RemoteName
	if flagValue := flagStringValue(command, flagRemoteNameConstant); len(flagValue) > 0 {
		remoteName = flagValue
	}

	branchName := configuration.BranchName
	if flagValue := flagStringValue(command, flagBranchNameConstant); len(flagValue) > 0 {
		branchName = flagValue
	}

	commitMessage := configuration.CommitMessage
	if flagValue := flagStringValue(command, flagMessageNameConstant); len(flagValue) > 0 {
		commitMessage = flagValue
	}

	return ServiceConfiguration{
		RepositoryPath: repositoryPath,
		RemoteName:     remoteName,
		BranchName:     branchName,
		CommitMessage:  commitMessage,
	}
}

func (builder *CommandBuilder) resolveCommandConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Normalized()
}

func (builder *CommandBuilder) resolveCoordinatorSettings() coordination.Settings {
	if builder.CoordinatorSettingsProvider == nil {
		return coordination.DefaultSettings()
	}
	return builder.CoordinatorSettingsProvider().Normalized()
}

func (builder *CommandBuilder) resolveAlertingConfiguration() alerting.Configuration {
	if builder.AlertingConfigurationProvider == nil {
		return alerting.DefaultConfiguration()
	}
	return builder.AlertingConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}

	return shellExecutor, nil
}

func (builder *CommandBuilder) resolveCoordinator(logger *zap.Logger, settings coordination.Settings) (ExecutionCoordinator, error) {
	if builder.Coordinator != nil {
		return builder.Coordinator, nil
	}

	section, sectionError := exclusion.NewSection(settings.LockDirectory, settings.RepositoryPath)
	if sectionError != nil {
		return nil, sectionError
	}

	fileSystem := afero.NewOsFs()
	configuration := builder.resolveCommandConfiguration()
	reclaimer := reclaim.NewReclaimer(fileSystem, logger, reclaim.Options{
		StaleThreshold: settings.StaleArtifactThreshold,
		BranchName:     configuration.BranchName,
		RemoteName:     configuration.RemoteName,
	})

	historyStore := coordination.NewHistoryStore(fileSystem, settings.StatusFilePath, logger)
	alertManager := alerting.NewManager(builder.resolveAlertingConfiguration(), logger)

	return coordination.NewCoordinator(coordination.Dependencies{
		Logger:         logger,
		Section:        section,
		Reclaimer:      reclaimer,
		History:        historyStore,
		BackoffPolicy:  settings.BackoffPolicy(),
		Alerts:         alertManager,
		RepositoryPath: settings.RepositoryPath,
		SettleDelay:    settings.SettleDelay,
	})
}

func flagStringValue(command *cobra.Command, flagName string) string {
	flagValue, _ := command.Flags().GetString(flagName)
	return strings.TrimSpace(flagValue)
}
