package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StepTypeStreaming identifies steps executed as Hadoop streaming jobs.
const StepTypeStreaming = "emr-streaming"

// EmrCluster describes the managed cluster resource a pipeline runs on. Only
// the AMI version affects step assembly.
type EmrCluster struct {
	Name       string
	AMIVersion string
}

func (c EmrCluster) Validate() error {
	if strings.TrimSpace(c.AMIVersion) == "" {
		return errors.New("ami version is required")
	}
	return nil
}

// StepDescriptor is an assembled cluster step ready for registration. The
// launcher command is carried as a single opaque string field.
type StepDescriptor struct {
	ID              string
	Name            string
	Type            string
	Ordinal         int
	StepString      string
	InputURI        string
	OutputURI       string
	AdditionalFiles []string
}

func (s StepDescriptor) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("step id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("step name is required")
	}
	if strings.TrimSpace(s.Type) == "" {
		return errors.New("step type is required")
	}
	if strings.TrimSpace(s.StepString) == "" {
		return errors.New("step string is required")
	}
	if strings.TrimSpace(s.OutputURI) == "" {
		return errors.New("output uri is required")
	}
	return nil
}

// Pipeline is an assembled pipeline: identity plus ordered step descriptors.
type Pipeline struct {
	ID              string
	Name            string
	Description     string
	AMIVersion      string
	RunID           string
	DefinitionYAML  string
	CreatedAt       time.Time
	CreatedBy       string
	IntegritySHA256 string
	Steps           []StepDescriptor
}

func (p Pipeline) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pipeline id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("pipeline name is required")
	}
	if strings.TrimSpace(p.AMIVersion) == "" {
		return errors.New("ami version is required")
	}
	if strings.TrimSpace(p.RunID) == "" {
		return errors.New("run id is required")
	}
	if len(p.Steps) == 0 {
		return errors.New("pipeline has no steps")
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step[%d]: %w", i, err)
		}
	}
	return nil
}
