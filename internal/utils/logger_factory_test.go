package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adkinsd2261/gitcoord/internal/utils"
)

func TestCreateLoggerSupportedCombinations(testInstance *testing.T) {
	testCases := []struct {
		name      string
		logLevel  utils.LogLevel
		logFormat utils.LogFormat
	}{
		{name: "debug_structured", logLevel: utils.LogLevelDebug, logFormat: utils.LogFormatStructured},
		{name: "info_console", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormatConsole},
		{name: "warn_structured", logLevel: utils.LogLevelWarn, logFormat: utils.LogFormatStructured},
		{name: "error_console", logLevel: utils.LogLevelError, logFormat: utils.LogFormatConsole},
	}

	factory := utils.NewLoggerFactory()
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := factory.CreateLogger(testCase.logLevel, testCase.logFormat)
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)
		})
	}
}

func TestCreateLoggerRejectsUnknownSettings(testInstance *testing.T) {
	factory := utils.NewLoggerFactory()

	testCases := []struct {
		name      string
		logLevel  utils.LogLevel
		logFormat utils.LogFormat
	}{
		{name: "unknown_level", logLevel: utils.LogLevel("verbose"), logFormat: utils.LogFormatConsole},
		{name: "unknown_format", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormat("xml")},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := factory.CreateLogger(testCase.logLevel, testCase.logFormat)
			require.Nil(testInstance, logger)
			require.Error(testInstance, creationError)
		})
	}
}
