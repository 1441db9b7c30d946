// Package storage lays out and writes the per-post output directories.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ytcarchiver/pkg/archive"
	"ytcarchiver/pkg/logger"
)

// VideoThumbnailName is the fixed filename for a linked video's
// thumbnail
const VideoThumbnailName = "video_thumbnail.jpg"

// Manager creates post directories under a base path and writes their
// contents
type Manager struct {
	baseDir string
	logger  logger.Logger
}

// NewManager creates a Manager rooted at baseDir, creating it if
// needed
func NewManager(baseDir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", baseDir, err)
	}

	return &Manager{baseDir: baseDir, logger: log}, nil
}

// BaseDir returns the output root
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// PostDirName builds the directory name for one exported post
func PostDirName(sequence int, membersOnly bool, postID string) string {
	tag := ""
	if membersOnly {
		tag = " (Members only)"
	}
	return fmt.Sprintf("[%s]%s %s", archive.SequenceKey(sequence), tag, postID)
}

// CreatePostDir creates (or reuses) the directory for one post and
// returns its path. An existing directory is kept so a crashed export
// can be re-attempted in place.
func (m *Manager) CreatePostDir(sequence int, membersOnly bool, postID string) (string, error) {
	dir := filepath.Join(m.baseDir, PostDirName(sequence, membersOnly, postID))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create post directory %s: %w", dir, err)
	}

	return dir, nil
}

// WriteText writes the rendered post text into the post directory
func (m *Manager) WriteText(postDir, content string) error {
	return writeAtomic(filepath.Join(postDir, "post.txt"), []byte(content))
}

// WriteJSON pretty-prints the raw post record into the post directory
func (m *Manager) WriteJSON(postDir string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		// malformed raw payload still gets written as-is
		return writeAtomic(filepath.Join(postDir, "post.json"), raw)
	}
	return writeAtomic(filepath.Join(postDir, "post.json"), buf.Bytes())
}

// WriteImage writes downloaded image bytes under the given filename
func (m *Manager) WriteImage(postDir, filename string, data []byte) error {
	return writeAtomic(filepath.Join(postDir, filename), data)
}

// ImageFilename derives a filename from an image URL's path segment
func ImageFilename(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "image.png"
	}

	name := strings.Trim(parsed.Path, "/")
	if name == "" {
		return "image.png"
	}

	return name + ".png"
}

func writeAtomic(path string, data []byte) error {
	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
