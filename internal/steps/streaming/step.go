package streaming

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

// ErrConflictingInput is returned when a step declares its input twice.
var ErrConflictingInput = errors.New("both input_path and input_node specified")

// StepConfig is the declared shape of one streaming step, before any
// resolution against the surrounding pipeline.
type StepConfig struct {
	Name         string
	MapperURI    string
	ReducerURI   string
	InputPath    string
	InputNode    string
	HadoopParams []string
}

func (c StepConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("step name is required")
	}
	if strings.TrimSpace(c.MapperURI) == "" {
		return errors.New("mapper is required")
	}
	hasPath := strings.TrimSpace(c.InputPath) != ""
	hasNode := strings.TrimSpace(c.InputNode) != ""
	if hasPath && hasNode {
		return ErrConflictingInput
	}
	if !hasPath && !hasNode {
		return errors.New("either input_path or input_node is required")
	}
	return nil
}

// StepContext carries the resolved surroundings of a step: the cluster
// version and the input/output locations chosen by the pipeline.
type StepContext struct {
	AMIVersion string
	Input      domain.S3Path
	Output     domain.S3Path
}

// AssembleStep resolves a streaming step into a registrable descriptor. The
// caller sets ID and Ordinal.
func AssembleStep(cfg StepConfig, stepCtx StepContext) (domain.StepDescriptor, error) {
	if err := cfg.Validate(); err != nil {
		return domain.StepDescriptor{}, fmt.Errorf("step %q: %w", cfg.Name, err)
	}
	if strings.TrimSpace(stepCtx.AMIVersion) == "" {
		return domain.StepDescriptor{}, fmt.Errorf("step %q: ami version is required", cfg.Name)
	}
	if err := stepCtx.Input.Validate(); err != nil {
		return domain.StepDescriptor{}, fmt.Errorf("step %q: input: %w", cfg.Name, err)
	}
	if err := stepCtx.Output.Validate(); err != nil {
		return domain.StepDescriptor{}, fmt.Errorf("step %q: output: %w", cfg.Name, err)
	}

	mapper, err := domain.ParseScriptFile(cfg.MapperURI)
	if err != nil {
		return domain.StepDescriptor{}, fmt.Errorf("step %q: mapper: %w", cfg.Name, err)
	}

	var reducer *domain.ScriptFile
	additionalFiles := []string{mapper.URI()}
	if strings.TrimSpace(cfg.ReducerURI) != "" {
		parsed, err := domain.ParseScriptFile(cfg.ReducerURI)
		if err != nil {
			return domain.StepDescriptor{}, fmt.Errorf("step %q: reducer: %w", cfg.Name, err)
		}
		reducer = &parsed
		additionalFiles = append(additionalFiles, parsed.URI())
	}

	stepString := BuildCommand(CommandParams{
		Mapper:       mapper,
		Reducer:      reducer,
		AMIVersion:   stepCtx.AMIVersion,
		Input:        stepCtx.Input,
		Output:       stepCtx.Output,
		HadoopParams: cfg.HadoopParams,
	})

	return domain.StepDescriptor{
		Name:            cfg.Name,
		Type:            domain.StepTypeStreaming,
		StepString:      stepString,
		InputURI:        stepCtx.Input.URI(),
		OutputURI:       stepCtx.Output.URI(),
		AdditionalFiles: additionalFiles,
	}, nil
}
