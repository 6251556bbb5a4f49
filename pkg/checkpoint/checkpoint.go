package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ptscraper/pkg/logger"
)

// Version is the current checkpoint file format
const Version = 1

// Checkpoint represents the state of a multi-creator run
type Checkpoint struct {
	UserID string `json:"user_id"`
	// Filter describes the date range and formats the run was started with;
	// a resumed run must use the same one
	Filter    string                  `json:"filter"`
	Completed map[string]CreatorEntry `json:"completed"` // vanity -> entry
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Version   int                     `json:"version"`
}

// CreatorEntry records a creator whose output was written
type CreatorEntry struct {
	Files       []string  `json:"files"`
	Posts       int       `json:"posts"`
	VideoURLs   int       `json:"video_urls"`
	CompletedAt time.Time `json:"completed_at"`
}

// Manager handles checkpoint operations
type Manager struct {
	checkpointPath string
	logger         logger.Logger
	mu             sync.Mutex
}

// NewManager creates a checkpoint manager storing its file under
// stateDir/checkpoints, one file per account
func NewManager(stateDir, account string) (*Manager, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("state directory is empty")
	}

	// Create checkpoints directory if it doesn't exist
	checkpointsDir := filepath.Join(stateDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	checkpointPath := filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", fileKey(account)))

	return &Manager{
		checkpointPath: checkpointPath,
		logger:         logger.GetLogger(),
	}, nil
}

// WithLogger replaces the manager's logger
func (m *Manager) WithLogger(log logger.Logger) *Manager {
	m.logger = log
	return m
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create creates a new checkpoint, replacing any existing one
func (m *Manager) Create(userID, filter string) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		UserID:    userID,
		Filter:    filter,
		Completed: make(map[string]CreatorEntry),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   Version,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"user_id": userID,
		"path":    m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint. It returns nil, nil when none exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version != Version {
		return nil, fmt.Errorf("unsupported checkpoint version %d", checkpoint.Version)
	}
	if checkpoint.Completed == nil {
		checkpoint.Completed = make(map[string]CreatorEntry)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"user_id":    checkpoint.UserID,
		"completed":  len(checkpoint.Completed),
		"updated_at": checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Resume loads the checkpoint when it matches userID and filter, and
// otherwise starts a fresh one. A checkpoint that is replaced is first
// copied to BackupPath.
func (m *Manager) Resume(userID, filter string) (*Checkpoint, error) {
	cp, err := m.Load()
	switch {
	case err != nil:
		m.logger.WarnWithFields("Ignoring unreadable checkpoint", map[string]interface{}{
			"path":  m.checkpointPath,
			"error": err.Error(),
		})
	case cp == nil:
		return m.Create(userID, filter)
	case cp.UserID == userID && cp.Filter == filter:
		return cp, nil
	default:
		m.logger.InfoWithFields("Checkpoint belongs to a different run, starting over", map[string]interface{}{
			"filter": cp.Filter,
		})
	}

	// the replaced checkpoint stays recoverable
	if err := m.backup(); err != nil {
		m.logger.WithError(err).Warn("Failed to back up checkpoint")
	}
	return m.Create(userID, filter)
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint.UpdatedAt = time.Now()

	// Create temporary file
	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	// Write checkpoint data
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"user_id":   checkpoint.UserID,
		"completed": len(checkpoint.Completed),
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Debug("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// RecordCreator marks a creator as done and saves the checkpoint
func (m *Manager) RecordCreator(checkpoint *Checkpoint, vanity string, entry CreatorEntry) error {
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = time.Now()
	}
	checkpoint.Completed[strings.ToLower(vanity)] = entry
	return m.Save(checkpoint)
}

// IsCreatorDone checks if a creator was completed by an earlier attempt
func (checkpoint *Checkpoint) IsCreatorDone(vanity string) bool {
	_, exists := checkpoint.Completed[strings.ToLower(vanity)]
	return exists
}

// Info summarises a stored checkpoint
type Info struct {
	UserID    string
	Filter    string
	Completed int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Age is the time since the checkpoint was last saved
func (i *Info) Age() time.Duration {
	return time.Since(i.UpdatedAt)
}

// Info returns a summary of the stored checkpoint, or nil when none exists
func (m *Manager) Info() (*Info, error) {
	checkpoint, err := m.Load()
	if err != nil || checkpoint == nil {
		return nil, err
	}

	return &Info{
		UserID:    checkpoint.UserID,
		Filter:    checkpoint.Filter,
		Completed: len(checkpoint.Completed),
		CreatedAt: checkpoint.CreatedAt,
		UpdatedAt: checkpoint.UpdatedAt,
	}, nil
}

// BackupPath is where a discarded checkpoint is kept
func (m *Manager) BackupPath() string {
	return m.checkpointPath + ".backup"
}

// backup copies the current checkpoint file to BackupPath, replacing any
// earlier backup
func (m *Manager) backup() error {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read checkpoint for backup: %w", err)
	}
	if err := os.WriteFile(m.BackupPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint backup: %w", err)
	}

	m.logger.InfoWithFields("Previous checkpoint backed up", map[string]interface{}{
		"path": m.BackupPath(),
	})
	return nil
}

func fileKey(account string) string {
	account = strings.TrimSpace(account)
	if account == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, account)
}
