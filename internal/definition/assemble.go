package definition

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/conveyor-data/conveyor-go/internal/domain"
	"github.com/conveyor-data/conveyor-go/internal/steps/streaming"
)

// AssembleOptions tune one assembly run.
type AssembleOptions struct {
	// RunID scopes step outputs; generated when empty.
	RunID     string
	CreatedBy string
}

// Assemble turns a validated definition into a registrable pipeline: steps in
// execution order, each with its launcher command and resolved locations.
// Step outputs land under s3://<data.bucket>/<prefix>/<pipeline>/<run>/<step>.
func Assemble(def Definition, opts AssembleOptions) (domain.Pipeline, error) {
	if err := def.Validate(); err != nil {
		return domain.Pipeline{}, err
	}
	ordered, err := OrderSteps(def)
	if err != nil {
		return domain.Pipeline{}, err
	}

	cluster := domain.EmrCluster{Name: def.Cluster.Name, AMIVersion: def.Cluster.AMIVersion}
	if err := cluster.Validate(); err != nil {
		return domain.Pipeline{}, fmt.Errorf("cluster: %w", err)
	}

	runID := strings.TrimSpace(opts.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}

	dataRoot := domain.S3Path{Bucket: def.Data.Bucket, Key: strings.Trim(def.Data.Prefix, "/")}
	outputs := make(map[string]domain.S3Path, len(ordered))
	steps := make([]domain.StepDescriptor, 0, len(ordered))

	for i, step := range ordered {
		cfg := streaming.StepConfig{
			Name:         step.Name,
			MapperURI:    step.Streaming.Mapper,
			ReducerURI:   step.Streaming.Reducer,
			InputPath:    step.Streaming.InputPath,
			InputNode:    step.Streaming.InputNode,
			HadoopParams: step.Streaming.HadoopParams,
		}
		if err := cfg.Validate(); err != nil {
			return domain.Pipeline{}, fmt.Errorf("step %q: %w", step.Name, err)
		}

		var input domain.S3Path
		if node := strings.TrimSpace(cfg.InputNode); node != "" {
			resolved, ok := outputs[node]
			if !ok {
				return domain.Pipeline{}, fmt.Errorf("step %q: input_node %q is not assembled yet", step.Name, node)
			}
			input = resolved
		} else {
			input, err = domain.ParseS3Path(cfg.InputPath)
			if err != nil {
				return domain.Pipeline{}, fmt.Errorf("step %q: input_path: %w", step.Name, err)
			}
		}

		output := dataRoot.Join(def.Name, runID, step.Name)
		desc, err := streaming.AssembleStep(cfg, streaming.StepContext{
			AMIVersion: cluster.AMIVersion,
			Input:      input,
			Output:     output,
		})
		if err != nil {
			return domain.Pipeline{}, err
		}
		desc.ID = uuid.NewString()
		desc.Ordinal = i
		outputs[step.Name] = output
		steps = append(steps, desc)
	}

	pipeline := domain.Pipeline{
		ID:          uuid.NewString(),
		Name:        def.Name,
		Description: def.Description,
		AMIVersion:  cluster.AMIVersion,
		RunID:       runID,
		CreatedBy:   strings.TrimSpace(opts.CreatedBy),
		Steps:       steps,
	}
	return pipeline, nil
}
