package repo

import (
	"context"
	"errors"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrNameExists = errors.New("name already exists")
)

type PipelineFilter struct {
	Name      string
	CreatedBy string
	Limit     int
}

// PipelineStore manages registered pipelines and their ordered steps.
type PipelineStore interface {
	CreatePipeline(ctx context.Context, pipeline domain.Pipeline) error
	GetPipeline(ctx context.Context, id string) (domain.Pipeline, error)
	ListPipelines(ctx context.Context, filter PipelineFilter) ([]domain.Pipeline, error)
}
