package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/conveyor-data/conveyor-go/internal/definition"
)

// render assembles a pipeline definition offline and prints the result as
// JSON, so the launcher commands can be inspected without a running registry.
func main() {
	var (
		defPath   = flag.String("definition", "", "path to a pipeline definition YAML file")
		runID     = flag.String("run-id", "", "run id to scope step outputs (generated when empty)")
		createdBy = flag.String("created-by", "local", "actor recorded on the assembled pipeline")
	)
	flag.Parse()

	if *defPath == "" {
		fmt.Fprintln(os.Stderr, "usage: render -definition <file.yaml> [-run-id <id>] [-created-by <actor>]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*defPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read definition: %v\n", err)
		os.Exit(1)
	}

	def, err := definition.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid definition: %v\n", err)
		os.Exit(1)
	}

	pipeline, err := definition.Assemble(def, definition.AssembleOptions{
		RunID:     *runID,
		CreatedBy: *createdBy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "assemble: %v\n", err)
		os.Exit(1)
	}

	type stepOutput struct {
		Name            string   `json:"name"`
		Type            string   `json:"type"`
		Ordinal         int      `json:"ordinal"`
		StepString      string   `json:"step_string"`
		InputURI        string   `json:"input_uri,omitempty"`
		OutputURI       string   `json:"output_uri"`
		AdditionalFiles []string `json:"additional_files,omitempty"`
	}
	type output struct {
		Name       string       `json:"name"`
		AMIVersion string       `json:"ami_version"`
		RunID      string       `json:"run_id"`
		Steps      []stepOutput `json:"steps"`
	}

	out := output{
		Name:       pipeline.Name,
		AMIVersion: pipeline.AMIVersion,
		RunID:      pipeline.RunID,
	}
	for _, step := range pipeline.Steps {
		out.Steps = append(out.Steps, stepOutput{
			Name:            step.Name,
			Type:            step.Type,
			Ordinal:         step.Ordinal,
			StepString:      step.StepString,
			InputURI:        step.InputURI,
			OutputURI:       step.OutputURI,
			AdditionalFiles: step.AdditionalFiles,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
