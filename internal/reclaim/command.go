package reclaim

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	commandUseConstant                 = "unlock"
	commandShortDescriptionConstant    = "Remove stale git lock artifacts from the repository"
	commandLongDescriptionConstant     = "unlock inspects the well-known advisory lock artifact paths inside the repository metadata area and removes any older than the staleness threshold. Artifacts younger than the threshold are left alone; a live git process may still be using them."
	unexpectedArgumentsMessageConstant = "unlock does not accept positional arguments"
	flagRepositoryNameConstant         = "repository"
	flagRepositoryDescriptionConstant  = "Path of the repository to inspect"
	flagMaxAgeNameConstant             = "max-age"
	flagMaxAgeDescriptionConstant      = "Staleness threshold an artifact must exceed before removal"
	removalReportTemplateConstant      = "removed %d stale lock artifact(s)\n"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// OptionsProvider supplies reclamation options resolved from configuration.
type OptionsProvider func() Options

// RepositoryPathProvider supplies the configured repository path.
type RepositoryPathProvider func() string

// CommandBuilder assembles the Cobra command for manual lock reclamation.
type CommandBuilder struct {
	LoggerProvider         LoggerProvider
	OptionsProvider        OptionsProvider
	RepositoryPathProvider RepositoryPathProvider
	FileSystem             afero.Fs
}

// Build constructs the unlock command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)
	command.Flags().Duration(flagMaxAgeNameConstant, 0, flagMaxAgeDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	options := builder.resolveOptions()
	if maxAgeValue := builder.flagDurationValue(command, flagMaxAgeNameConstant); maxAgeValue > 0 {
		options.StaleThreshold = maxAgeValue
	}

	repositoryPath := builder.resolveRepositoryPath()
	if flagValue, _ := command.Flags().GetString(flagRepositoryNameConstant); len(flagValue) > 0 {
		repositoryPath = flagValue
	}

	reclaimer := NewReclaimer(builder.resolveFileSystem(), builder.resolveLogger(), options)
	removedCount := reclaimer.Reclaim(repositoryPath)

	fmt.Fprintf(command.OutOrStdout(), removalReportTemplateConstant, removedCount)
	return nil
}

func (builder *CommandBuilder) resolveOptions() Options {
	if builder.OptionsProvider == nil {
		return Options{}
	}
	return builder.OptionsProvider()
}

func (builder *CommandBuilder) resolveRepositoryPath() string {
	if builder.RepositoryPathProvider == nil {
		return "."
	}
	repositoryPath := builder.RepositoryPathProvider()
	if len(repositoryPath) == 0 {
		return "."
	}
	return repositoryPath
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

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem == nil {
		return afero.NewOsFs()
	}
	return builder.FileSystem
}

func (builder *CommandBuilder) flagDurationValue(command *cobra.Command, flagName string) time.Duration {
	flagValue, _ := command.Flags().GetDuration(flagName)
	return flagValue
}
