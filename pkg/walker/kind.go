package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind classifies a candidate file for the adapter.
type Kind int

const (
	// KindIgnore marks files the run never touches.
	KindIgnore Kind = iota
	// KindText marks text/markup files scanned for hex color literals.
	KindText
	// KindImage marks raster images edited pixel by pixel.
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "ignore"
	}
}

// Backup directory prefixes recognized by traversal. Files under these are
// prior backups and must never be reprocessed. The legacy prefix is the one
// the predecessor tool used.
const (
	backupPrefix       = ".recolor_backup_"
	legacyBackupPrefix = ".color_replace_backup_"
)

var defaultTextExts = []string{
	".ux", ".js", ".ts", ".json", ".css", ".less", ".scss",
	".xml", ".html", ".wxml", ".wxss", ".qml", ".vue", ".md", ".txt",
	".svg",
}

var defaultImageExts = []string{
	".png", ".jpg", ".jpeg", ".webp", ".bmp", ".gif", ".tiff", ".tif",
}

// Classifier decides what kind of processing, if any, a file gets. The
// extension allowlists are the built-ins plus any extras from the options;
// ignore patterns are doublestar globs matched against the slash-separated
// root-relative path.
type Classifier struct {
	text           map[string]struct{}
	image          map[string]struct{}
	ignorePatterns []string
}

// NewClassifier builds a classifier from the built-in allowlists plus extras.
func NewClassifier(extraText, extraImage, ignorePatterns []string) *Classifier {
	c := &Classifier{
		text:           make(map[string]struct{}),
		image:          make(map[string]struct{}),
		ignorePatterns: ignorePatterns,
	}
	for _, ext := range defaultTextExts {
		c.text[ext] = struct{}{}
	}
	for _, ext := range extraText {
		c.text[normalizeExt(ext)] = struct{}{}
	}
	for _, ext := range defaultImageExts {
		c.image[ext] = struct{}{}
	}
	for _, ext := range extraImage {
		c.image[normalizeExt(ext)] = struct{}{}
	}
	return c
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Classify maps a root-relative path to a processing kind.
func (c *Classifier) Classify(relPath string) Kind {
	if InBackupDir(relPath) {
		return KindIgnore
	}

	slashed := filepath.ToSlash(relPath)
	for _, pattern := range c.ignorePatterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return KindIgnore
		}
	}

	ext := strings.ToLower(filepath.Ext(relPath))
	if _, ok := c.text[ext]; ok {
		return KindText
	}
	if _, ok := c.image[ext]; ok {
		return KindImage
	}
	return KindIgnore
}

// InBackupDir reports whether any path segment is a recognized backup
// directory, from this tool or its predecessor.
func InBackupDir(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if isBackupDirName(seg) {
			return true
		}
	}
	return false
}

func isBackupDirName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) || strings.HasPrefix(name, legacyBackupPrefix)
}
