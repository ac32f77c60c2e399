package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/whyhi/wos/internal/logger"
)

// intentsFile is the shape of the YAML intent catalog used to seed the
// registry at startup.
type intentsFile struct {
	Intents []intentEntry `yaml:"intents"`
}

type intentEntry struct {
	IntentID         string `yaml:"intent_id"`
	Name             string `yaml:"name"`
	Version          string `yaml:"version"`
	Description      string `yaml:"description"`
	HandlerReference string `yaml:"handler"`
	ApprovalRequired bool   `yaml:"approval_required"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxRetries       int    `yaml:"max_retries"`
	ExecutionMode    string `yaml:"execution_mode"`
	Schedule         string `yaml:"schedule"`
	Notes            string `yaml:"notes"`
}

// LoadIntentsFile parses a YAML intent catalog.
func LoadIntentsFile(path string) ([]IntentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents file: %w", err)
	}

	var file intentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse intents file: %w", err)
	}

	inputs := make([]IntentInput, 0, len(file.Intents))
	for _, e := range file.Intents {
		inputs = append(inputs, IntentInput{
			IntentID:         e.IntentID,
			Name:             e.Name,
			Version:          e.Version,
			Description:      e.Description,
			HandlerReference: e.HandlerReference,
			ApprovalRequired: e.ApprovalRequired,
			TimeoutSeconds:   e.TimeoutSeconds,
			MaxRetries:       e.MaxRetries,
			ExecutionMode:    e.ExecutionMode,
			Schedule:         e.Schedule,
			Notes:            e.Notes,
		})
	}

	return inputs, nil
}

// Bootstrap seeds the registry from a YAML catalog. Intents already
// registered are skipped; Register logs and refuses duplicates on its
// own.
func (s *Store) Bootstrap(ctx context.Context, path string) error {
	inputs, err := LoadIntentsFile(path)
	if err != nil {
		return err
	}

	seeded := 0
	for _, in := range inputs {
		existing, err := s.GetIntentByID(ctx, in.IntentID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if s.Register(ctx, in) {
			seeded++
		}
	}

	logger.Info("intent catalog bootstrapped", "file", path, "seeded", seeded, "total", len(inputs))
	return nil
}
