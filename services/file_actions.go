package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/itish2003/voicerag/models"
)

// FileActions handles the artifacts written to disk: rendered audio and the
// optional raw copy of every crawled document. Every file is named with a
// fresh UUID.
type FileActions struct {
	Dir string // absolute path of the artifact directory
}

// NewFileActions creates dir if needed and returns a FileActions rooted there.
func NewFileActions(dir string) (*FileActions, error) {
	if dir == "" {
		return nil, &models.ConfigurationError{Msg: "artifact directory is not set"}
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for %s: %w", dir, err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &FileActions{Dir: absPath}, nil
}

// sanitizeFilename keeps filename inside the artifact directory.
func (fa *FileActions) sanitizeFilename(filename string) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || base != filename {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	cleanPath := filepath.Join(fa.Dir, base)
	if !strings.HasPrefix(cleanPath, fa.Dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filename, attempts to escape artifact directory")
	}
	return cleanPath, nil
}

// WriteDocument stores doc as <uuid>.json and returns the path.
func (fa *FileActions) WriteDocument(doc models.Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document %s: %w", doc.URL, err)
	}
	path, err := fa.sanitizeFilename(uuid.NewString() + ".json")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write document %s: %w", doc.URL, err)
	}
	return path, nil
}

// WriteAudio stores audio under a fresh id. The caller owns the returned
// artifact and removes it once it has been consumed.
func (fa *FileActions) WriteAudio(audio models.Audio) (*models.AudioArtifact, error) {
	if len(audio.Data) == 0 {
		return nil, errors.New("audio payload is empty")
	}
	ext := strings.TrimPrefix(audio.Extension, ".")
	if ext == "" {
		ext = "mp3"
	}
	id := uuid.NewString()
	path, err := fa.sanitizeFilename(id + "." + ext)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, audio.Data, 0o600); err != nil {
		return nil, fmt.Errorf("write audio artifact: %w", err)
	}
	return &models.AudioArtifact{
		ID:       id,
		Path:     path,
		MIMEType: audio.MIMEType,
		Size:     int64(len(audio.Data)),
	}, nil
}

// FindAudio resolves an artifact id to its file. Only UUID ids are accepted.
func (fa *FileActions) FindAudio(id string) (*models.AudioArtifact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid artifact id %q", id)
	}
	matches, err := filepath.Glob(filepath.Join(fa.Dir, id+".*"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, os.ErrNotExist
	}
	info, err := os.Stat(matches[0])
	if err != nil {
		return nil, err
	}
	return &models.AudioArtifact{
		ID:       id,
		Path:     matches[0],
		MIMEType: mimeForExtension(filepath.Ext(matches[0])),
		Size:     info.Size(),
	}, nil
}

// Sweep removes files older than ttl and returns how many were deleted.
func (fa *FileActions) Sweep(ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(fa.Dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(fa.Dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (fa *FileActions) StartSweeper(ctx context.Context, interval, ttl time.Duration, onSweep func(int, error)) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := fa.Sweep(ttl)
				if onSweep != nil {
					onSweep(n, err)
				}
			}
		}
	}()
}

func mimeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/opus"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
