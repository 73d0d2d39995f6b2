package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoSnapshots is how many automatic snapshots are kept.
const maxAutoSnapshots = 5

// Snapshot errors.
var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotCorrupted = errors.New("snapshot integrity check failed")
	ErrSnapshotExists    = errors.New("snapshot already exists")
	ErrInvalidSnapshotID = errors.New("invalid snapshot id: cannot contain path separators")
	ErrInMemoryDatabase  = errors.New("snapshots require a database file")
)

// SnapshotManager copies the ledger database to and from point-in-time files
// kept next to it in a snapshots directory.
type SnapshotManager struct {
	db           *sql.DB
	dbPath       string
	snapshotsDir string
}

// SnapshotInfo describes a stored snapshot. It is also the JSON side file.
type SnapshotInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	Transactions  int       `json:"transactions"`
	Categories    int       `json:"categories"`
	Budgets       int       `json:"budgets"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// NewSnapshotManager creates a snapshot manager for the database at dbPath.
func NewSnapshotManager(db *sql.DB, dbPath string) (*SnapshotManager, error) {
	if dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	snapshotsDir := filepath.Join(filepath.Dir(absPath), "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &SnapshotManager{
		db:           db,
		dbPath:       absPath,
		snapshotsDir: snapshotsDir,
	}, nil
}

// Create writes a snapshot named id (generated when empty).
func (sm *SnapshotManager) Create(ctx context.Context, id, description string) (*SnapshotInfo, error) {
	if id == "" {
		id = "snapshot-" + time.Now().Format("2006-01-02-150405")
	}
	return sm.create(ctx, id, description, false)
}

// Auto takes an automatic snapshot before an operation named reason and prunes
// older automatic snapshots.
func (sm *SnapshotManager) Auto(ctx context.Context, reason string) (*SnapshotInfo, error) {
	id := fmt.Sprintf("auto-%s-%s", reason, time.Now().Format("2006-01-02-150405"))
	info, err := sm.create(ctx, id, "Automatic snapshot before "+reason, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic snapshot: %w", err)
	}

	if err := sm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune automatic snapshots", "error", err)
	}
	return info, nil
}

func (sm *SnapshotManager) create(ctx context.Context, id, description string, auto bool) (*SnapshotInfo, error) {
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}

	snapshotPath := sm.dataPath(id)
	if _, err := os.Stat(snapshotPath); err == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrSnapshotExists)
	}

	info := SnapshotInfo{
		ID:          id,
		CreatedAt:   time.Now(),
		Description: description,
		IsAuto:      auto,
	}
	if err := sm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&info.SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if err := sm.countRows(ctx, &info); err != nil {
		return nil, err
	}

	if err := sm.vacuumInto(ctx, snapshotPath); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	stat, err := os.Stat(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	info.FileSize = stat.Size()

	if err := writeJSONFile(sm.metaPath(id), info); err != nil {
		if rmErr := os.Remove(snapshotPath); rmErr != nil {
			slog.Error("failed to remove snapshot after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save snapshot metadata: %w", err)
	}

	slog.Info("created snapshot", "id", id, "size", info.FileSize, "auto", auto)
	return &info, nil
}

// List returns all snapshots, newest first. Unreadable metadata is skipped.
func (sm *SnapshotManager) List(_ context.Context) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(sm.snapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	snapshots := make([]SnapshotInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readSnapshotInfo(filepath.Join(sm.snapshotsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snapshots = append(snapshots, *info)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// Get returns the metadata of one snapshot.
func (sm *SnapshotManager) Get(_ context.Context, id string) (*SnapshotInfo, error) {
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}
	info, err := readSnapshotInfo(sm.metaPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	return info, err
}

// Restore replaces the live database with snapshot id. It closes the database
// handle, so the owning storage must be reopened afterwards.
func (sm *SnapshotManager) Restore(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}

	snapshotPath := sm.dataPath(id)
	if _, err := os.Stat(snapshotPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
		}
		return fmt.Errorf("failed to access snapshot: %w", err)
	}

	if err := verifyIntegrity(snapshotPath); err != nil {
		return fmt.Errorf("%s: %w: %w", id, ErrSnapshotCorrupted, err)
	}

	if err := sm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	// Stale WAL files would be replayed on top of the restored copy.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(sm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s file: %w", suffix, err)
		}
	}

	rollbackPath := sm.dbPath + ".restore-backup"
	if err := copyFile(sm.dbPath, rollbackPath); err != nil {
		return fmt.Errorf("failed to back up current database: %w", err)
	}

	if err := copyFile(snapshotPath, sm.dbPath); err != nil {
		if restoreErr := copyFile(rollbackPath, sm.dbPath); restoreErr != nil {
			slog.Error("failed to put database back after restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	if err := os.Remove(rollbackPath); err != nil {
		slog.Error("failed to remove restore backup", "error", err)
	}

	slog.Info("restored snapshot", "id", id)
	return nil
}

// Delete removes a snapshot and its metadata.
func (sm *SnapshotManager) Delete(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}

	if err := os.Remove(sm.dataPath(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
		}
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}

	if err := os.Remove(sm.metaPath(id)); err != nil {
		slog.Debug("failed to remove snapshot metadata", "error", err, "id", id)
	}
	return nil
}

func (sm *SnapshotManager) pruneAuto(ctx context.Context) error {
	snapshots, err := sm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, s := range snapshots {
		if !s.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoSnapshots {
			if err := sm.Delete(ctx, s.ID); err != nil {
				slog.Debug("failed to delete old automatic snapshot", "error", err, "id", s.ID)
			}
		}
	}
	return nil
}

func (sm *SnapshotManager) countRows(ctx context.Context, info *SnapshotInfo) error {
	counts := []struct {
		dest  *int
		query string
	}{
		{&info.Transactions, "SELECT COUNT(*) FROM transactions"},
		{&info.Categories, "SELECT COUNT(*) FROM categories"},
		{&info.Budgets, "SELECT COUNT(*) FROM budgets"},
	}
	for _, c := range counts {
		if err := sm.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return nil
}

func (sm *SnapshotManager) vacuumInto(ctx context.Context, destPath string) error {
	if strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	// #nosec G201 - destPath is built from a validated snapshot id
	_, err := sm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath))
	return err
}

func (sm *SnapshotManager) dataPath(id string) string {
	return filepath.Join(sm.snapshotsDir, id+".db")
}

func (sm *SnapshotManager) metaPath(id string) string {
	return filepath.Join(sm.snapshotsDir, id+".meta.json")
}

func validateSnapshotID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// copyFile copies src to dst through a temporary file and rename.
func copyFile(src, dst string) error {
	// #nosec G304 - paths come from the snapshot manager
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmp := dst + ".tmp"
	destination, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshotInfo(path string) (*SnapshotInfo, error) {
	// #nosec G304 - path is inside the snapshots directory
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var info SnapshotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
