// Package seed loads demo data from a YAML file at startup. Submissions and
// requests are replayed through the scoring service so stats, first
// discoveries, and achievements stay consistent with organic traffic.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/internal/repository"
	"github.com/ranz0c/leakhub/internal/service/scoring"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// File is the root of a seed YAML document.
type File struct {
	Submissions []Submission `yaml:"submissions"`
	Requests    []Request    `yaml:"requests"`
}

// Submission is one seeded leak.
type Submission struct {
	Source        string `yaml:"source"`
	TargetType    string `yaml:"target_type"`
	Instance      string `yaml:"instance"`
	FunctionName  string `yaml:"function_name"`
	ParentSystem  string `yaml:"parent_system"`
	TargetURL     string `yaml:"target_url"`
	Content       string `yaml:"content"`
	Context       string `yaml:"context"`
	HasTools      bool   `yaml:"has_tools"`
	ToolPrompts   string `yaml:"tool_prompts"`
	RequiresLogin bool   `yaml:"requires_login"`
	RequiresPaid  bool   `yaml:"requires_paid"`
	AccessNotes   string `yaml:"access_notes"`
}

// Request is one seeded leak request.
type Request struct {
	TargetType    string `yaml:"target_type"`
	Instance      string `yaml:"instance"`
	TargetURL     string `yaml:"target_url"`
	Description   string `yaml:"description"`
	Bounty        int    `yaml:"bounty"`
	RequestedBy   string `yaml:"requested_by"`
	RequiresLogin bool   `yaml:"requires_login"`
	RequiresPaid  bool   `yaml:"requires_paid"`
}

// Load parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &file, nil
}

// Apply replays the seed data through the scoring service. Seeding is skipped
// when the database already holds submissions, so restarts stay idempotent.
func Apply(ctx context.Context, path string, submissionRepo *repository.SubmissionRepository,
	scoringService *scoring.Service, log *logger.Logger) error {

	count, err := submissionRepo.CountAll()
	if err != nil {
		return fmt.Errorf("failed to check existing data: %w", err)
	}
	if count > 0 {
		log.Info().Int64("existing", count).Msg("Database not empty, skipping seed")
		return nil
	}

	file, err := Load(path)
	if err != nil {
		return err
	}

	// Requests first so seeded submissions can fulfill seeded bounties.
	for _, r := range file.Requests {
		request := &models.LeakRequest{
			TargetType:    r.TargetType,
			Instance:      r.Instance,
			TargetURL:     r.TargetURL,
			Description:   r.Description,
			Bounty:        r.Bounty,
			RequestedBy:   r.RequestedBy,
			RequiresLogin: r.RequiresLogin,
			RequiresPaid:  r.RequiresPaid,
		}
		if err := scoringService.RecordRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to seed request for %q: %w", r.Instance, err)
		}
	}

	for _, s := range file.Submissions {
		submission := &models.Submission{
			Source:        s.Source,
			TargetType:    s.TargetType,
			Instance:      s.Instance,
			FunctionName:  s.FunctionName,
			ParentSystem:  s.ParentSystem,
			TargetURL:     s.TargetURL,
			Content:       s.Content,
			Context:       s.Context,
			HasTools:      s.HasTools,
			ToolPrompts:   s.ToolPrompts,
			RequiresLogin: s.RequiresLogin,
			RequiresPaid:  s.RequiresPaid,
			AccessNotes:   s.AccessNotes,
		}
		if _, err := scoringService.RecordSubmission(ctx, submission); err != nil {
			return fmt.Errorf("failed to seed submission for %q: %w", s.Instance, err)
		}
	}

	log.Info().
		Int("submissions", len(file.Submissions)).
		Int("requests", len(file.Requests)).
		Msg("Seed data loaded")

	return nil
}
