package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/conveyor-data/conveyor-go/internal/domain"
	"github.com/conveyor-data/conveyor-go/internal/repo"
)

type PipelineStore struct {
	db DB
}

func NewPipelineStore(db DB) *PipelineStore {
	if db == nil {
		return nil
	}
	return &PipelineStore{db: db}
}

// CreatePipeline inserts the pipeline row and every step row. Run it inside a
// transaction so a failed step insert does not leave a partial pipeline.
func (s *PipelineStore) CreatePipeline(ctx context.Context, pipeline domain.Pipeline) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("pipeline store not initialized")
	}
	if err := pipeline.Validate(); err != nil {
		return err
	}
	if err := requireIntegrity(pipeline.IntegritySHA256); err != nil {
		return err
	}
	createdAt := normalizeTime(pipeline.CreatedAt)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pipelines (
			pipeline_id,
			name,
			description,
			ami_version,
			run_id,
			definition_yaml,
			created_at,
			created_by,
			integrity_sha256
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		strings.TrimSpace(pipeline.ID),
		strings.TrimSpace(pipeline.Name),
		strings.TrimSpace(pipeline.Description),
		strings.TrimSpace(pipeline.AMIVersion),
		strings.TrimSpace(pipeline.RunID),
		pipeline.DefinitionYAML,
		createdAt,
		strings.TrimSpace(pipeline.CreatedBy),
		strings.TrimSpace(pipeline.IntegritySHA256),
	)
	if err != nil {
		return fmt.Errorf("insert pipeline: %w", handleUniqueViolation(err))
	}

	for _, step := range pipeline.Steps {
		filesJSON, err := encodeStringList(step.AdditionalFiles)
		if err != nil {
			return fmt.Errorf("encode additional files: %w", err)
		}
		_, err = s.db.ExecContext(
			ctx,
			`INSERT INTO pipeline_steps (
				step_id,
				pipeline_id,
				name,
				step_type,
				ordinal,
				step_string,
				input_uri,
				output_uri,
				additional_files
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			strings.TrimSpace(step.ID),
			strings.TrimSpace(pipeline.ID),
			strings.TrimSpace(step.Name),
			strings.TrimSpace(step.Type),
			step.Ordinal,
			step.StepString,
			strings.TrimSpace(step.InputURI),
			strings.TrimSpace(step.OutputURI),
			filesJSON,
		)
		if err != nil {
			return fmt.Errorf("insert pipeline step %q: %w", step.Name, err)
		}
	}
	return nil
}

func (s *PipelineStore) GetPipeline(ctx context.Context, id string) (domain.Pipeline, error) {
	if s == nil || s.db == nil {
		return domain.Pipeline{}, fmt.Errorf("pipeline store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Pipeline{}, fmt.Errorf("pipeline id is required")
	}
	var pipeline domain.Pipeline
	row := s.db.QueryRowContext(
		ctx,
		`SELECT pipeline_id, name, description, ami_version, run_id, definition_yaml, created_at, created_by, integrity_sha256
		 FROM pipelines
		 WHERE pipeline_id = $1`,
		id,
	)
	if err := row.Scan(&pipeline.ID, &pipeline.Name, &pipeline.Description, &pipeline.AMIVersion, &pipeline.RunID, &pipeline.DefinitionYAML, &pipeline.CreatedAt, &pipeline.CreatedBy, &pipeline.IntegritySHA256); err != nil {
		return domain.Pipeline{}, handleNotFound(err)
	}

	steps, err := s.listSteps(ctx, id)
	if err != nil {
		return domain.Pipeline{}, err
	}
	pipeline.Steps = steps
	return pipeline, nil
}

func (s *PipelineStore) listSteps(ctx context.Context, pipelineID string) ([]domain.StepDescriptor, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT step_id, name, step_type, ordinal, step_string, input_uri, output_uri, additional_files
		 FROM pipeline_steps
		 WHERE pipeline_id = $1
		 ORDER BY ordinal ASC`,
		pipelineID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pipeline steps: %w", err)
	}
	defer rows.Close()

	steps := make([]domain.StepDescriptor, 0)
	for rows.Next() {
		var step domain.StepDescriptor
		var filesJSON []byte
		if err := rows.Scan(&step.ID, &step.Name, &step.Type, &step.Ordinal, &step.StepString, &step.InputURI, &step.OutputURI, &filesJSON); err != nil {
			return nil, fmt.Errorf("scan pipeline step: %w", err)
		}
		files, err := decodeStringList(filesJSON)
		if err != nil {
			return nil, fmt.Errorf("decode additional files: %w", err)
		}
		step.AdditionalFiles = files
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipeline steps: %w", err)
	}
	return steps, nil
}

func (s *PipelineStore) ListPipelines(ctx context.Context, filter repo.PipelineFilter) ([]domain.Pipeline, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("pipeline store not initialized")
	}
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if strings.TrimSpace(filter.Name) != "" {
		args = append(args, strings.TrimSpace(filter.Name))
		clauses = append(clauses, fmt.Sprintf("name = $%d", len(args)))
	}
	if strings.TrimSpace(filter.CreatedBy) != "" {
		args = append(args, strings.TrimSpace(filter.CreatedBy))
		clauses = append(clauses, fmt.Sprintf("created_by = $%d", len(args)))
	}

	query := `SELECT pipeline_id, name, description, ami_version, run_id, definition_yaml, created_at, created_by, integrity_sha256 FROM pipelines`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := make([]domain.Pipeline, 0)
	for rows.Next() {
		var pipeline domain.Pipeline
		if err := rows.Scan(&pipeline.ID, &pipeline.Name, &pipeline.Description, &pipeline.AMIVersion, &pipeline.RunID, &pipeline.DefinitionYAML, &pipeline.CreatedAt, &pipeline.CreatedBy, &pipeline.IntegritySHA256); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipelines = append(pipelines, pipeline)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return pipelines, nil
}
