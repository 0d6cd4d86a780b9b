package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"rankcli/internal/config"
	"rankcli/internal/roster"
)

// ErrNotFound is returned when a requested export file does not exist.
var ErrNotFound = fmt.Errorf("export file not found")

// Store manages the export directory: saving ranked tables under
// generated names, resolving download requests safely, and removing
// stale files.
type Store struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// NewStore creates an export store rooted at dir. Files older than maxAge
// are eligible for cleanup.
func NewStore(dir string, maxAge time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, maxAge: maxAge, logger: logger}
}

// Save writes the table in the requested format ("csv" or "xlsx") under a
// generated name and returns the filename.
func (s *Store) Save(t *roster.Table, format string) (string, error) {
	ext, ok := config.AllowedExportFormats[format]
	if !ok {
		return "", fmt.Errorf("invalid export format %q", format)
	}

	filename := generateName(ext)
	path := filepath.Join(s.dir, filename)

	headers := t.Columns()
	records := make([][]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		records[i] = t.Row(i)
	}

	var err error
	switch format {
	case "csv":
		err = writeCSV(path, headers, records)
	case "xlsx":
		err = writeExcel(path, headers, records)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}

	s.logger.Info("export written",
		slog.String("filename", filename),
		slog.String("format", format),
		slog.Int("rows", t.Len()))

	return filename, nil
}

// Resolve maps an export filename to its on-disk path. The filename is
// stripped of any path components and must carry a whitelisted extension;
// symlinks and paths escaping the exports directory are rejected.
func (s *Store) Resolve(filename string) (string, error) {
	safe := filepath.Base(filename)
	if !allowedExtension(safe) {
		return "", fmt.Errorf("invalid export extension on %q", safe)
	}

	path := filepath.Join(s.dir, safe)

	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve exports directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve export path: %w", err)
	}
	if !strings.HasPrefix(absPath, absDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("export path escapes exports directory")
	}

	info, err := os.Lstat(absPath)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat export: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("export path is a symlink")
	}

	return absPath, nil
}

// CleanupOld removes export files older than the configured maximum age.
// Only plain files with whitelisted extensions inside the exports
// directory are touched; failure to remove one file does not stop the
// sweep.
func (s *Store) CleanupOld() {
	cutoff := time.Now().Add(-s.maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("export cleanup skipped", slog.String("error", err.Error()))
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtension(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn("failed to remove stale export",
				slog.String("filename", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("stale exports removed", slog.Int("count", removed))
	}
}

func allowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range config.AllowedExportFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}

// generateName builds an export filename from the current time and a
// random suffix. No user input ever reaches the name.
func generateName(ext string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return fmt.Sprintf("rankings_%s_%s%s", time.Now().Format("20060102_150405"), suffix, ext)
}
