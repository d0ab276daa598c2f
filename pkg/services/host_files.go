package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/deploymenttheory/go-judim/internal/config"
)

const hostFileMode = 0o644

// WriteFile replaces path with data atomically; readers never see a partial file
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := atomicwriter.WriteFile(path, data, hostFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// workerLimit returns the configured number of concurrent host writers, at least 1
func workerLimit(cfg *config.Config) int {
	if cfg.Workers < 1 {
		return 1
	}
	return cfg.Workers
}

func readHostFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
