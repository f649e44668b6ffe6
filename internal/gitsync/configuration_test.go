package gitsync_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adkinsd2261/gitcoord/internal/gitsync"
)

func TestCommandConfigurationNormalized(testInstance *testing.T) {
	testCases := []struct {
		name          string
		configuration gitsync.CommandConfiguration
		expected      gitsync.CommandConfiguration
	}{
		{
			name:          "empty_fields_take_defaults",
			configuration: gitsync.CommandConfiguration{},
			expected:      gitsync.DefaultCommandConfiguration(),
		},
		{
			name: "whitespace_fields_take_defaults",
			configuration: gitsync.CommandConfiguration{
				RemoteName:    "  ",
				BranchName:    "\t",
				CommitMessage: "",
			},
			expected: gitsync.DefaultCommandConfiguration(),
		},
		{
			name: "explicit_fields_preserved",
			configuration: gitsync.CommandConfiguration{
				RemoteName:    "upstream",
				BranchName:    "develop",
				CommitMessage: "scheduled sync",
			},
			expected: gitsync.CommandConfiguration{
				RemoteName:    "upstream",
				BranchName:    "develop",
				CommitMessage: "scheduled sync",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.configuration.Normalized())
		})
	}
}

func TestDefaultConfigurationValuesArePrefixed(testInstance *testing.T) {
	defaultValues := gitsync.DefaultConfigurationValues("sync")

	require.Equal(testInstance, "origin", defaultValues["sync.remote"])
	require.Equal(testInstance, "main", defaultValues["sync.branch"])
	require.Equal(testInstance, "Automated commit", defaultValues["sync.commit_message"])
}
