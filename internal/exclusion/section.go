package exclusion

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
)

const (
	sectionBusyMessageConstant            = "exclusive section held by another process"
	unsupportedPlatformMessageConstant    = "exclusive sections require a Unix-like operating system"
	windowsOperatingSystemNameConstant    = "windows"
	lockFileNameTemplateConstant          = "gitcoord-%s.lock"
	repositoryHashLengthConstant          = 16
	lockFilePermissionsConstant           = 0o644
	lockFileOpenErrorTemplateConstant     = "unable to open section lock file %s: %w"
	lockFileFlockErrorTemplateConstant    = "unable to lock section lock file %s: %w"
	lockFileTruncateErrorTemplateConstant = "unable to truncate section lock file %s: %w"
	lockFileWriteErrorTemplateConstant    = "unable to record holder in section lock file %s: %w"
)

// ErrSectionBusy indicates the section is currently held by another holder.
var ErrSectionBusy = errors.New(sectionBusyMessageConstant)

// ErrUnsupportedPlatform indicates the host cannot provide advisory file locks.
var ErrUnsupportedPlatform = errors.New(unsupportedPlatformMessageConstant)

// Section is a cross-process mutual exclusion token scoped to one repository.
// Acquisition is non-blocking; a caller that cannot acquire immediately
// receives ErrSectionBusy rather than queuing.
type Section struct {
	lockFilePath      string
	lockFile          *os.File
	processIdentifier int
	acquired          bool
}

// NewSection builds a section whose lock file lives in lockDirectory and is
// derived from the repository path. An empty lockDirectory selects the
// operating system temporary directory.
func NewSection(lockDirectory string, repositoryPath string) (*Section, error) {
	if runtime.GOOS == windowsOperatingSystemNameConstant {
		return nil, ErrUnsupportedPlatform
	}

	resolvedLockDirectory := lockDirectory
	if len(resolvedLockDirectory) == 0 {
		resolvedLockDirectory = os.TempDir()
	}

	repositoryHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repositoryPath)))[:repositoryHashLengthConstant]
	lockFilePath := filepath.Join(resolvedLockDirectory, fmt.Sprintf(lockFileNameTemplateConstant, repositoryHash))

	return &Section{
		lockFilePath:      lockFilePath,
		processIdentifier: os.Getpid(),
	}, nil
}

// LockFilePath reports the well-known path backing the section.
func (section *Section) LockFilePath() string {
	return section.lockFilePath
}

// TryAcquire attempts to take the section without blocking. It returns
// ErrSectionBusy when another holder currently owns the flock.
func (section *Section) TryAcquire() error {
	if section.acquired {
		return nil
	}

	lockFile, openError := os.OpenFile(section.lockFilePath, os.O_CREATE|os.O_RDWR, lockFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(lockFileOpenErrorTemplateConstant, section.lockFilePath, openError)
	}

	flockError := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if flockError != nil {
		closeQuietly(lockFile)
		// Older Unix systems report EAGAIN and EWOULDBLOCK as distinct codes;
		// portable callers must treat them the same.
		if errors.Is(flockError, syscall.EWOULDBLOCK) || errors.Is(flockError, syscall.EAGAIN) {
			return ErrSectionBusy
		}
		return fmt.Errorf(lockFileFlockErrorTemplateConstant, section.lockFilePath, flockError)
	}

	if recordError := section.recordHolder(lockFile); recordError != nil {
		releaseFlock(lockFile)
		closeQuietly(lockFile)
		return recordError
	}

	section.lockFile = lockFile
	section.acquired = true
	return nil
}

// Release surrenders the section. Releasing an unheld section is a no-op, so
// callers may defer Release unconditionally. The lock file itself is left in
// place; removing it would race with a concurrent acquirer holding the same
// path.
func (section *Section) Release() error {
	if !section.acquired || section.lockFile == nil {
		return nil
	}

	releaseFlock(section.lockFile)
	closeQuietly(section.lockFile)
	section.lockFile = nil
	section.acquired = false
	return nil
}

// Held reports whether this instance currently owns the section.
func (section *Section) Held() bool {
	return section.acquired
}

func (section *Section) recordHolder(lockFile *os.File) error {
	if truncateError := lockFile.Truncate(0); truncateError != nil {
		return fmt.Errorf(lockFileTruncateErrorTemplateConstant, section.lockFilePath, truncateError)
	}
	if _, writeError := lockFile.WriteAt([]byte(strconv.Itoa(section.processIdentifier)), 0); writeError != nil {
		return fmt.Errorf(lockFileWriteErrorTemplateConstant, section.lockFilePath, writeError)
	}
	return nil
}

func releaseFlock(lockFile *os.File) {
	_ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
}

func closeQuietly(lockFile *os.File) {
	_ = lockFile.Close()
}
