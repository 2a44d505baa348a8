// Package results persists parsed model output as indented JSON files.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const DefaultFile = "result.json"

var (
	ErrNotFound     = errors.New("result not found")
	ErrInvalidKeyID = errors.New("invalid request id")

	validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Config mirrors the results section of the configuration file.
type Config struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// Store writes results to <request-id>.json and mirrors the latest one into
// the fixed file. Without a request id only the fixed file is written. Writes
// are serialized and atomic.
type Store struct {
	dir  string
	file string

	mu sync.Mutex
}

func New(cfg Config) *Store {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}

	file := strings.TrimSpace(cfg.File)
	if file == "" {
		file = DefaultFile
	}

	return &Store{dir: dir, file: file}
}

// Path returns the file backing the given request id.
func (s *Store) Path(requestID string) (string, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return filepath.Join(s.dir, s.file), nil
	}

	if !validID.MatchString(requestID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyID, requestID)
	}

	return filepath.Join(s.dir, requestID+".json"), nil
}

// Save overwrites the result for requestID and returns the written path. The
// fixed result file is always rewritten too, so it holds the latest result of
// any request.
func (s *Store) Save(requestID string, v any) (string, error) {
	path, err := s.Path(requestID)
	if err != nil {
		return "", err
	}

	latest, _ := s.Path("")

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}

	if err := writeFile(path, data); err != nil {
		return "", err
	}

	if path != latest {
		if err := writeFile(latest, data); err != nil {
			return "", err
		}
	}

	return path, nil
}

// writeFile replaces path with data through a temp file and a rename.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".result-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp result file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write result: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close result: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace result file %s: %w", path, err)
	}

	return nil
}

// Load decodes the stored result for requestID.
func (s *Store) Load(requestID string) (any, error) {
	path, err := s.Path(requestID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return v, nil
}
