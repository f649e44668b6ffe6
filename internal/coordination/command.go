package coordination

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	statusCommandUseConstant              = "status"
	statusCommandShortDescriptionConstant = "Show the persisted coordinator status"
	statusCommandLongDescriptionConstant  = "status prints the coordinator run history record: the last operation outcome, the consecutive failure count, and any active cooldown."
	statusUnexpectedArgumentsMessage      = "status does not accept positional arguments"
	statusRenderErrorTemplateConstant     = "unable to render coordinator status: %w"
	statusOutputTemplateConstant          = "%s\n"
)

var errStatusUnexpectedArguments = errors.New(statusUnexpectedArgumentsMessage)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// SettingsProvider supplies coordinator settings resolved from configuration.
type SettingsProvider func() Settings

// StatusCommandBuilder assembles the Cobra command reporting coordinator
// status.
type StatusCommandBuilder struct {
	LoggerProvider   LoggerProvider
	SettingsProvider SettingsProvider
	FileSystem       afero.Fs
}

// Build constructs the status command.
func (builder *StatusCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortDescriptionConstant,
		Long:  statusCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *StatusCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errStatusUnexpectedArguments
	}

	settings := builder.resolveSettings()
	historyStore := NewHistoryStore(builder.resolveFileSystem(), settings.StatusFilePath, builder.resolveLogger())

	persistedStatus := historyStore.Load()
	renderedStatus, renderError := json.MarshalIndent(persistedStatus, jsonIndentPrefixConstant, jsonIndentConstant)
	if renderError != nil {
		return fmt.Errorf(statusRenderErrorTemplateConstant, renderError)
	}

	fmt.Fprintf(command.OutOrStdout(), statusOutputTemplateConstant, renderedStatus)
	return nil
}

func (builder *StatusCommandBuilder) resolveSettings() Settings {
	if builder.SettingsProvider == nil {
		return DefaultSettings()
	}
	return builder.SettingsProvider().Normalized()
}

func (builder *StatusCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *StatusCommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem == nil {
		return afero.NewOsFs()
	}
	return builder.FileSystem
}
