package walker

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

// BackupManager copies originals into a timestamped backup root that mirrors
// each file's path relative to the scan root. The directory is created lazily
// on the first backup, so a run that changes nothing leaves no empty
// directory behind.
type BackupManager struct {
	scanRoot string
	dir      string
	created  bool
}

// NewBackupManager names the backup root for a run starting at now.
func NewBackupManager(scanRoot string, now time.Time) *BackupManager {
	return &BackupManager{
		scanRoot: scanRoot,
		dir:      filepath.Join(scanRoot, backupPrefix+now.Format("20060102_150405")),
	}
}

// Dir returns the backup root path.
func (b *BackupManager) Dir() string {
	return b.dir
}

// Created reports whether any file has been backed up this run.
func (b *BackupManager) Created() bool {
	return b.created
}

// Backup copies path into the backup root before it is overwritten,
// preserving file mode and modification time.
func (b *BackupManager) Backup(path string) error {
	rel, err := filepath.Rel(b.scanRoot, path)
	if err != nil {
		return errors.Errorf("relativizing backup path: %w", err)
	}

	dst := filepath.Join(b.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Errorf("creating backup directory: %w", err)
	}

	if err := copyPreserving(path, dst); err != nil {
		return errors.Errorf("backing up %s: %w", rel, err)
	}
	b.created = true
	return nil
}

// copyPreserving copies src to dst and carries over mode and modtime.
func copyPreserving(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, time.Now(), info.ModTime())
}
