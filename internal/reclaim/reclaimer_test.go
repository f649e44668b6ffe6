package reclaim_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adkinsd2261/gitcoord/internal/reclaim"
)

const (
	testRepositoryPathConstant = "/srv/managed-repo"
	testBranchNameConstant     = "main"
	testRemoteNameConstant     = "origin"
	testStaleThresholdConstant = 5 * time.Minute
)

func newArtifact(testInstance *testing.T, fileSystem afero.Fs, artifactPath string, modificationTime time.Time) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(artifactPath), 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, artifactPath, []byte{}, 0o644))
	require.NoError(testInstance, fileSystem.Chtimes(artifactPath, modificationTime, modificationTime))
}

func newTestReclaimer(fileSystem afero.Fs, currentTime time.Time) *reclaim.Reclaimer {
	return reclaim.NewReclaimer(fileSystem, zap.NewNop(), reclaim.Options{
		StaleThreshold: testStaleThresholdConstant,
		BranchName:     testBranchNameConstant,
		RemoteName:     testRemoteNameConstant,
		Clock:          func() time.Time { return currentTime },
	})
}

func TestReclaimRemovesOnlyStaleArtifacts(testInstance *testing.T) {
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	fileSystem := afero.NewMemMapFs()
	reclaimer := newTestReclaimer(fileSystem, currentTime)

	artifactPaths := reclaimer.ArtifactPaths(testRepositoryPathConstant)
	require.Len(testInstance, artifactPaths, 6)

	staleIndexArtifactPath := artifactPaths[0]
	freshHeadArtifactPath := artifactPaths[1]

	newArtifact(testInstance, fileSystem, staleIndexArtifactPath, currentTime.Add(-10*time.Minute))
	newArtifact(testInstance, fileSystem, freshHeadArtifactPath, currentTime.Add(-time.Minute))

	removedCount := reclaimer.Reclaim(testRepositoryPathConstant)
	require.Equal(testInstance, 1, removedCount)

	staleArtifactExists, _ := afero.Exists(fileSystem, staleIndexArtifactPath)
	require.False(testInstance, staleArtifactExists)

	freshArtifactExists, _ := afero.Exists(fileSystem, freshHeadArtifactPath)
	require.True(testInstance, freshArtifactExists)
}

func TestReclaimIsIdempotent(testInstance *testing.T) {
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	fileSystem := afero.NewMemMapFs()
	reclaimer := newTestReclaimer(fileSystem, currentTime)

	artifactPaths := reclaimer.ArtifactPaths(testRepositoryPathConstant)
	newArtifact(testInstance, fileSystem, artifactPaths[0], currentTime.Add(-time.Hour))
	newArtifact(testInstance, fileSystem, artifactPaths[3], currentTime.Add(-time.Hour))

	require.Equal(testInstance, 2, reclaimer.Reclaim(testRepositoryPathConstant))
	require.Zero(testInstance, reclaimer.Reclaim(testRepositoryPathConstant))
}

func TestReclaimTreatsMissingArtifactsAsAlreadyGone(testInstance *testing.T) {
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	reclaimer := newTestReclaimer(afero.NewMemMapFs(), currentTime)

	require.Zero(testInstance, reclaimer.Reclaim(testRepositoryPathConstant))
}

func TestReclaimLeavesArtifactAtExactThresholdAge(testInstance *testing.T) {
	currentTime := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	fileSystem := afero.NewMemMapFs()
	reclaimer := newTestReclaimer(fileSystem, currentTime)

	artifactPaths := reclaimer.ArtifactPaths(testRepositoryPathConstant)
	newArtifact(testInstance, fileSystem, artifactPaths[0], currentTime.Add(-testStaleThresholdConstant))

	// Removal requires the artifact to be strictly older than the threshold.
	require.Zero(testInstance, reclaimer.Reclaim(testRepositoryPathConstant))
}

func TestArtifactPathsCoverKnownMarkers(testInstance *testing.T) {
	reclaimer := newTestReclaimer(afero.NewMemMapFs(), time.Now())

	artifactPaths := reclaimer.ArtifactPaths(testRepositoryPathConstant)

	expectedSuffixes := []string{
		filepath.Join(".git", "index.lock"),
		filepath.Join(".git", "HEAD.lock"),
		filepath.Join(".git", "config.lock"),
		filepath.Join(".git", "COMMIT_EDITMSG.lock"),
		filepath.Join(".git", "refs", "heads", "main.lock"),
		filepath.Join(".git", "refs", "remotes", "origin", "main.lock"),
	}

	require.Len(testInstance, artifactPaths, len(expectedSuffixes))
	for pathIndex, expectedSuffix := range expectedSuffixes {
		require.Equal(testInstance, filepath.Join(testRepositoryPathConstant, expectedSuffix), artifactPaths[pathIndex])
	}
}
