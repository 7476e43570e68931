package harvest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

// CheckpointVersion is the current checkpoint format version.
const CheckpointVersion = 1

// stateFileName is the compressed state file inside a checkpoint directory.
const stateFileName = "state.json.lz4"

// Checkpoint directory and file permissions.
const (
	checkpointDirPerm  = 0o750
	checkpointFilePerm = 0o640
)

// Sentinel errors for checkpoint validation.
var (
	ErrCheckpointVersion  = errors.New("checkpoint version mismatch")
	ErrCheckpointRepoPath = errors.New("checkpoint repo path mismatch")
	ErrNoCheckpoint       = errors.New("no checkpoint")
)

// Checkpoint is the persisted state of a harvest run: the summary plus the
// ingested hash set, so a resumed run stays idempotent across processes.
type Checkpoint struct {
	Version   int       `json:"version"`
	RepoPath  string    `json:"repo_path"`
	CreatedAt time.Time `json:"created_at"`
	Summary   *Summary  `json:"summary"`
	Seen      []string  `json:"seen"`
}

// DefaultCheckpointDir returns the default checkpoint base directory.
func DefaultCheckpointDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".git-harvest", "checkpoints")
}

// repoHash computes a short hash of the repository path, used as the
// per-repository checkpoint directory name.
func repoHash(repoPath string) string {
	h := sha256.Sum256([]byte(repoPath))

	return hex.EncodeToString(h[:8])
}

// CheckpointManager stores and restores harvest state for one repository.
type CheckpointManager struct {
	BaseDir  string
	RepoPath string
}

// NewCheckpointManager creates a manager rooted at baseDir for repoPath.
func NewCheckpointManager(baseDir, repoPath string) *CheckpointManager {
	return &CheckpointManager{BaseDir: baseDir, RepoPath: repoPath}
}

// statePath returns the path of the compressed state file.
func (m *CheckpointManager) statePath() string {
	return filepath.Join(m.BaseDir, repoHash(m.RepoPath), stateFileName)
}

// Exists reports whether a checkpoint is present for the repository.
func (m *CheckpointManager) Exists() bool {
	_, err := os.Stat(m.statePath())

	return err == nil
}

// Clear removes the repository's checkpoint.
func (m *CheckpointManager) Clear() error {
	dir := filepath.Dir(m.statePath())

	_, statErr := os.Stat(dir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// Save writes the aggregator state as LZ4-compressed JSON.
func (m *CheckpointManager) Save(agg *Aggregator) error {
	cp := &Checkpoint{
		Version:   CheckpointVersion,
		RepoPath:  m.RepoPath,
		CreatedAt: time.Now(),
		Summary:   agg.Snapshot(),
		Seen:      agg.SeenHashes(),
	}

	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := m.statePath()

	err = os.MkdirAll(filepath.Dir(path), checkpointDirPerm)
	if err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, checkpointFilePerm)
	if err != nil {
		return fmt.Errorf("create checkpoint file: %w", err)
	}

	writer := lz4.NewWriter(file)

	_, err = writer.Write(payload)
	if err != nil {
		file.Close()

		return fmt.Errorf("write checkpoint: %w", err)
	}

	err = writer.Close()
	if err != nil {
		file.Close()

		return fmt.Errorf("flush checkpoint: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close checkpoint file: %w", err)
	}

	return nil
}

// Load reads and validates the checkpoint for the repository.
func (m *CheckpointManager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for %s", ErrNoCheckpoint, m.RepoPath)
		}

		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer file.Close()

	var cp Checkpoint

	decodeErr := json.NewDecoder(lz4.NewReader(file)).Decode(&cp)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", decodeErr)
	}

	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersion, cp.Version, CheckpointVersion)
	}

	if cp.RepoPath != m.RepoPath {
		return nil, fmt.Errorf("%w: checkpoint is for %s", ErrCheckpointRepoPath, cp.RepoPath)
	}

	return &cp, nil
}
