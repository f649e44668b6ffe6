package coordination

import (
	"encoding/json"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	defaultStatusFileNameConstant     = "git_coordinator_status.json"
	temporaryStatusFileSuffixConstant = ".tmp"
	statusFilePermissionsConstant     = 0o644
	statusUnreadableMessageConstant   = "status record unreadable, starting from the ready default"
	statusUnparsableMessageConstant   = "status record corrupt, starting from the ready default"
	jsonIndentPrefixConstant          = ""
	jsonIndentConstant                = "  "
	logFieldStatusFilePathConstant    = "status_file_path"
)

// HistoryStore persists the coordinator status as a human-inspectable JSON
// record at a fixed location. The store is not self-synchronizing; callers
// hold the exclusive section around Save. Load degrades to the ready default
// whenever the record is missing, unreadable, or corrupt.
type HistoryStore struct {
	fileSystem     afero.Fs
	statusFilePath string
	logger         *zap.Logger
}

// NewHistoryStore constructs a store writing to statusFilePath on the
// provided filesystem.
func NewHistoryStore(fileSystem afero.Fs, statusFilePath string, logger *zap.Logger) *HistoryStore {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if len(statusFilePath) == 0 {
		statusFilePath = defaultStatusFileNameConstant
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HistoryStore{
		fileSystem:     fileSystem,
		statusFilePath: statusFilePath,
		logger:         logger,
	}
}

// StatusFilePath reports where the status record is persisted.
func (store *HistoryStore) StatusFilePath() string {
	return store.statusFilePath
}

// Load reads the persisted status. Corruption is swallowed, never propagated.
func (store *HistoryStore) Load() Status {
	statusData, readError := afero.ReadFile(store.fileSystem, store.statusFilePath)
	if readError != nil {
		store.logger.Debug(
			statusUnreadableMessageConstant,
			zap.String(logFieldStatusFilePathConstant, store.statusFilePath),
			zap.Error(readError),
		)
		return NewReadyStatus()
	}

	var persistedStatus Status
	if unmarshalError := json.Unmarshal(statusData, &persistedStatus); unmarshalError != nil {
		store.logger.Warn(
			statusUnparsableMessageConstant,
			zap.String(logFieldStatusFilePathConstant, store.statusFilePath),
			zap.Error(unmarshalError),
		)
		return NewReadyStatus()
	}

	return persistedStatus
}

// Save overwrites the persisted record by writing to a temporary sibling and
// renaming it into place, so a concurrent reader never observes a partially
// written record.
func (store *HistoryStore) Save(status Status) error {
	statusData, marshalError := json.MarshalIndent(status, jsonIndentPrefixConstant, jsonIndentConstant)
	if marshalError != nil {
		return marshalError
	}

	temporaryFilePath := store.statusFilePath + temporaryStatusFileSuffixConstant
	if writeError := afero.WriteFile(store.fileSystem, temporaryFilePath, statusData, statusFilePermissionsConstant); writeError != nil {
		return writeError
	}

	return store.fileSystem.Rename(temporaryFilePath, store.statusFilePath)
}
