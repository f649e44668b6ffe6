package gitsync

import "strings"

const (
	remoteConfigKeyConstant           = "remote"
	branchConfigKeyConstant           = "branch"
	commitMessageConfigKeyConstant    = "commit_message"
	configurationKeySeparatorConstant = "."
	defaultRemoteNameConstant         = "origin"
	defaultBranchNameConstant         = "main"
	defaultCommitMessageConstant      = "Automated commit"
)

// CommandConfiguration describes the sync command settings persisted in
// configuration files.
type CommandConfiguration struct {
	RemoteName    string `mapstructure:"remote"`
	BranchName    string `mapstructure:"branch"`
	CommitMessage string `mapstructure:"commit_message"`
}

// DefaultCommandConfiguration returns the sync defaults.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName:    defaultRemoteNameConstant,
		BranchName:    defaultBranchNameConstant,
		CommitMessage: defaultCommitMessageConstant,
	}
}

// Normalized fills empty fields with defaults.
func (configuration CommandConfiguration) Normalized() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	if len(strings.TrimSpace(configuration.RemoteName)) == 0 {
		configuration.RemoteName = defaults.RemoteName
	}
	if len(strings.TrimSpace(configuration.BranchName)) == 0 {
		configuration.BranchName = defaults.BranchName
	}
	if len(strings.TrimSpace(configuration.CommitMessage)) == 0 {
		configuration.CommitMessage = defaults.CommitMessage
	}
	return configuration
}

// DefaultConfigurationValues exposes sync defaults for configuration loading
// under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	prefixedKey := func(configurationKey string) string {
		return configurationKeyPrefix + configurationKeySeparatorConstant + configurationKey
	}

	return map[string]any{
		prefixedKey(remoteConfigKeyConstant):        defaultRemoteNameConstant,
		prefixedKey(branchConfigKeyConstant):        defaultBranchNameConstant,
		prefixedKey(commitMessageConfigKeyConstant): defaultCommitMessageConstant,
	}
}
