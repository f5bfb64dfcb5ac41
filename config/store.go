package config

import (
	"fmt"
	"os"
)

// Store persists the trade settings as a default-config document. The bot
// core only depends on this interface, never on a file format.
type Store interface {
	// Load returns the saved default settings. Missing keys fall back to the
	// compiled defaults; unknown keys are an error.
	Load() (Trade, error)
	// Save writes the given settings as the new default.
	Save(Trade) error
	// Exists reports whether a default document has been saved.
	Exists() bool
}

// FileStore keeps the default trade settings in a YAML or JSON document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Trade, error) {
	trade := DefaultTrade()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return trade, fmt.Errorf("read default config: %w", err)
	}
	if err := decodeStrict(s.path, data, &trade); err != nil {
		return trade, fmt.Errorf("parse default config: %w", err)
	}
	if err := trade.Validate(); err != nil {
		return trade, fmt.Errorf("invalid default config: %w", err)
	}
	return trade, nil
}

func (s *FileStore) Save(t Trade) error {
	data, err := encode(s.path, t)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
