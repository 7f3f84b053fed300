package definition

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conveyor-data/conveyor-go/internal/domain"
	"github.com/conveyor-data/conveyor-go/internal/steps/streaming"
)

const SchemaV1 = "conveyor.pipeline.v1"

// Definition is a declared pipeline as written by a user.
type Definition struct {
	Schema       string       `yaml:"schema"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description,omitempty"`
	Cluster      Cluster      `yaml:"cluster"`
	Data         Data         `yaml:"data"`
	Steps        []Step       `yaml:"steps"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

type Cluster struct {
	Name       string `yaml:"name,omitempty"`
	AMIVersion string `yaml:"ami_version"`
}

// Data names the bucket and key prefix step outputs are written under.
type Data struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix,omitempty"`
}

type Dependency struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type Step struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	Streaming *StreamingStep `yaml:"streaming,omitempty"`
}

// StreamingStep configures one Hadoop streaming step. input_path and
// input_node are mutually exclusive ways of naming the step input.
type StreamingStep struct {
	Mapper       string   `yaml:"mapper"`
	Reducer      string   `yaml:"reducer,omitempty"`
	InputPath    string   `yaml:"input_path,omitempty"`
	InputNode    string   `yaml:"input_node,omitempty"`
	HadoopParams []string `yaml:"hadoop_params,omitempty"`
}

// Parse decodes and validates a pipeline definition document.
func Parse(input []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(input, &def); err != nil {
		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Schema) != SchemaV1 {
		return fmt.Errorf("schema must be %q", SchemaV1)
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(d.Cluster.AMIVersion) == "" {
		return errors.New("cluster.ami_version is required")
	}
	if strings.TrimSpace(d.Data.Bucket) == "" {
		return errors.New("data.bucket is required")
	}
	if len(d.Steps) == 0 {
		return errors.New("steps must be non-empty")
	}

	names := make(map[string]struct{}, len(d.Steps))
	for i, step := range d.Steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return fmt.Errorf("steps[%d].name is required", i)
		}
		if _, ok := names[name]; ok {
			return fmt.Errorf("steps[%d].name must be unique (duplicate %q)", i, name)
		}
		names[name] = struct{}{}

		kind := strings.TrimSpace(step.Type)
		if kind == "" {
			return fmt.Errorf("steps[%d].type is required", i)
		}
		if kind != domain.StepTypeStreaming {
			return fmt.Errorf("steps[%d].type unsupported: %q", i, step.Type)
		}
		if step.Streaming == nil {
			return fmt.Errorf("steps[%d] %s requires a streaming block", i, kind)
		}
		if err := step.Streaming.validate(); err != nil {
			return fmt.Errorf("steps[%d] %q: %w", i, name, err)
		}
	}

	for i, step := range d.Steps {
		if step.Streaming == nil {
			continue
		}
		node := strings.TrimSpace(step.Streaming.InputNode)
		if node == "" {
			continue
		}
		if node == strings.TrimSpace(step.Name) {
			return fmt.Errorf("steps[%d].streaming.input_node must not reference the step itself", i)
		}
		if _, ok := names[node]; !ok {
			return fmt.Errorf("steps[%d].streaming.input_node references unknown step %q", i, node)
		}
	}

	for i, dep := range d.Dependencies {
		from := strings.TrimSpace(dep.From)
		to := strings.TrimSpace(dep.To)
		if from == "" || to == "" {
			return fmt.Errorf("dependencies[%d] requires from and to", i)
		}
		if _, ok := names[from]; !ok {
			return fmt.Errorf("dependencies[%d].from references unknown step %q", i, from)
		}
		if _, ok := names[to]; !ok {
			return fmt.Errorf("dependencies[%d].to references unknown step %q", i, to)
		}
		if from == to {
			return fmt.Errorf("dependencies[%d] must not be self-referential", i)
		}
	}
	return nil
}

func (s StreamingStep) validate() error {
	if strings.TrimSpace(s.Mapper) == "" {
		return errors.New("mapper is required")
	}
	if _, err := domain.ParseScriptFile(s.Mapper); err != nil {
		return fmt.Errorf("mapper: %w", err)
	}
	if strings.TrimSpace(s.Reducer) != "" {
		if _, err := domain.ParseScriptFile(s.Reducer); err != nil {
			return fmt.Errorf("reducer: %w", err)
		}
	}

	hasPath := strings.TrimSpace(s.InputPath) != ""
	hasNode := strings.TrimSpace(s.InputNode) != ""
	if hasPath && hasNode {
		return streaming.ErrConflictingInput
	}
	if !hasPath && !hasNode {
		return errors.New("either input_path or input_node is required")
	}
	if hasPath {
		if _, err := domain.ParseS3Path(s.InputPath); err != nil {
			return fmt.Errorf("input_path: %w", err)
		}
	}
	return nil
}
