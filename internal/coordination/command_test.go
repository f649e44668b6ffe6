package coordination_test

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/coordination"
)

func TestStatusCommandPrintsPersistedRecord(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	store := coordination.NewHistoryStore(fileSystem, testStatusFileNameConstant, zap.NewNop())
	require.NoError(testInstance, store.Save(coordination.Status{
		ConsecutiveFailures: 2,
		State:               coordination.StateFailed,
	}))

	builder := coordination.StatusCommandBuilder{
		SettingsProvider: func() coordination.Settings {
			settings := coordination.DefaultSettings()
			settings.StatusFilePath = testStatusFileNameConstant
			return settings
		},
		FileSystem: fileSystem,
	}

	statusCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	statusCommand.SetOut(outputBuffer)
	statusCommand.SetArgs([]string{})

	require.NoError(testInstance, statusCommand.Execute())
	require.Contains(testInstance, outputBuffer.String(), `"consecutive_failures": 2`)
	require.Contains(testInstance, outputBuffer.String(), `"state": "failed"`)
}

func TestStatusCommandRejectsPositionalArguments(testInstance *testing.T) {
	builder := coordination.StatusCommandBuilder{FileSystem: afero.NewMemMapFs()}

	statusCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	statusCommand.SetOut(&bytes.Buffer{})
	statusCommand.SetErr(&bytes.Buffer{})
	statusCommand.SetArgs([]string{"unexpected"})

	require.Error(testInstance, statusCommand.Execute())
}
