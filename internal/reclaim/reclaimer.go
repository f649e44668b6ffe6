package reclaim

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	gitMetadataDirectoryNameConstant     = ".git"
	indexArtifactNameConstant            = "index.lock"
	headArtifactNameConstant             = "HEAD.lock"
	configArtifactNameConstant           = "config.lock"
	commitMessageArtifactNameConstant    = "COMMIT_EDITMSG.lock"
	localBranchArtifactTemplateConstant  = "refs/heads/%s.lock"
	remoteBranchArtifactTemplateConstant = "refs/remotes/%s/%s.lock"
	defaultBranchNameConstant            = "main"
	defaultRemoteNameConstant            = "origin"
	defaultStaleThresholdConstant        = 300 * time.Second
	artifactRemovedMessageConstant       = "removed stale lock artifact"
	artifactRemovalFailedMessageConstant = "unable to remove stale lock artifact"
	artifactStillFreshMessageConstant    = "lock artifact younger than staleness threshold, leaving in place"
	logFieldArtifactPathConstant         = "artifact_path"
	logFieldArtifactAgeConstant          = "artifact_age"
	logFieldStalenessThresholdConstant   = "staleness_threshold"
)

// Options adjusts reclamation behavior. Zero values select defaults.
type Options struct {
	StaleThreshold time.Duration
	BranchName     string
	RemoteName     string
	Clock          func() time.Time
}

// Reclaimer inspects the fixed set of well-known advisory lock artifact paths
// inside a repository and removes those whose age exceeds the staleness
// threshold. Reclamation is idempotent.
type Reclaimer struct {
	fileSystem     afero.Fs
	logger         *zap.Logger
	staleThreshold time.Duration
	branchName     string
	remoteName     string
	clock          func() time.Time
}

// NewReclaimer constructs a Reclaimer over the provided filesystem.
func NewReclaimer(fileSystem afero.Fs, logger *zap.Logger, options Options) *Reclaimer {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	staleThreshold := options.StaleThreshold
	if staleThreshold <= 0 {
		staleThreshold = defaultStaleThresholdConstant
	}

	branchName := options.BranchName
	if len(branchName) == 0 {
		branchName = defaultBranchNameConstant
	}

	remoteName := options.RemoteName
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	clock := options.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Reclaimer{
		fileSystem:     fileSystem,
		logger:         logger,
		staleThreshold: staleThreshold,
		branchName:     branchName,
		remoteName:     remoteName,
		clock:          clock,
	}
}

// ArtifactPaths lists the well-known advisory lock artifact locations for the
// repository: the index marker, the head marker, the config and commit
// message markers, and the per-ref markers for the tracked branch.
func (reclaimer *Reclaimer) ArtifactPaths(repositoryPath string) []string {
	metadataDirectory := filepath.Join(repositoryPath, gitMetadataDirectoryNameConstant)
	return []string{
		filepath.Join(metadataDirectory, indexArtifactNameConstant),
		filepath.Join(metadataDirectory, headArtifactNameConstant),
		filepath.Join(metadataDirectory, configArtifactNameConstant),
		filepath.Join(metadataDirectory, commitMessageArtifactNameConstant),
		filepath.Join(metadataDirectory, fmt.Sprintf(localBranchArtifactTemplateConstant, reclaimer.branchName)),
		filepath.Join(metadataDirectory, fmt.Sprintf(remoteBranchArtifactTemplateConstant, reclaimer.remoteName, reclaimer.branchName)),
	}
}

// Reclaim removes stale artifacts under the repository and reports how many
// were removed. Artifacts that cannot be stat'd are treated as already gone;
// removal failures are logged and do not abort reclamation.
func (reclaimer *Reclaimer) Reclaim(repositoryPath string) int {
	currentTime := reclaimer.clock()
	removedCount := 0

	for _, artifactPath := range reclaimer.ArtifactPaths(repositoryPath) {
		artifactInformation, statError := reclaimer.fileSystem.Stat(artifactPath)
		if statError != nil {
			continue
		}

		artifactAge := currentTime.Sub(artifactInformation.ModTime())
		if artifactAge <= reclaimer.staleThreshold {
			reclaimer.logger.Debug(
				artifactStillFreshMessageConstant,
				zap.String(logFieldArtifactPathConstant, artifactPath),
				zap.Duration(logFieldArtifactAgeConstant, artifactAge),
				zap.Duration(logFieldStalenessThresholdConstant, reclaimer.staleThreshold),
			)
			continue
		}

		if removeError := reclaimer.fileSystem.Remove(artifactPath); removeError != nil {
			reclaimer.logger.Warn(
				artifactRemovalFailedMessageConstant,
				zap.String(logFieldArtifactPathConstant, artifactPath),
				zap.Error(removeError),
			)
			continue
		}

		removedCount++
		reclaimer.logger.Info(
			artifactRemovedMessageConstant,
			zap.String(logFieldArtifactPathConstant, artifactPath),
			zap.Duration(logFieldArtifactAgeConstant, artifactAge),
		)
	}

	return removedCount
}
