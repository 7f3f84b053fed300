package main

import (
	"testing"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

func TestIntegritySHA256_Deterministic(t *testing.T) {
	type input struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	in := input{A: "x", B: 1}

	a, err := integritySHA256(in)
	if err != nil {
		t.Fatalf("integritySHA256() err=%v", err)
	}
	b, err := integritySHA256(in)
	if err != nil {
		t.Fatalf("integritySHA256() err=%v", err)
	}
	if a != b {
		t.Fatalf("hash mismatch: %q vs %q", a, b)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename(""); got != "script.bin" {
		t.Fatalf("sanitizeFilename(\"\")=%q, want script.bin", got)
	}
	if got := sanitizeFilename("../evil.py"); got != "evil.py" {
		t.Fatalf("sanitizeFilename(\"../evil.py\")=%q, want evil.py", got)
	}
	if got := sanitizeFilename("/tmp/word_mapper.py"); got != "word_mapper.py" {
		t.Fatalf("sanitizeFilename(\"/tmp/word_mapper.py\")=%q, want word_mapper.py", got)
	}
}

func TestClampInt(t *testing.T) {
	if got := clampInt(0, 1, 500); got != 1 {
		t.Fatalf("clampInt(0)=%d, want 1", got)
	}
	if got := clampInt(1000, 1, 500); got != 500 {
		t.Fatalf("clampInt(1000)=%d, want 500", got)
	}
	if got := clampInt(42, 1, 500); got != 42 {
		t.Fatalf("clampInt(42)=%d, want 42", got)
	}
}

func TestRenderPipelineStepOrderPreserved(t *testing.T) {
	p := domain.Pipeline{
		ID:         "p1",
		Name:       "wordcount",
		AMIVersion: "4.1.0",
		RunID:      "run-1",
		Steps: []domain.StepDescriptor{
			{ID: "s1", Name: "count", Type: domain.StepTypeStreaming, Ordinal: 0, StepString: "jar,...", OutputURI: "s3://b/out/count"},
			{ID: "s2", Name: "rollup", Type: domain.StepTypeStreaming, Ordinal: 1, StepString: "jar,...", OutputURI: "s3://b/out/rollup"},
		},
	}

	rendered := renderPipeline(p, true)
	if len(rendered.Steps) != 2 {
		t.Fatalf("steps=%d, want 2", len(rendered.Steps))
	}
	if rendered.Steps[0].Name != "count" || rendered.Steps[1].Name != "rollup" {
		t.Fatalf("step order=%q,%q", rendered.Steps[0].Name, rendered.Steps[1].Name)
	}
	if rendered.Steps[0].AdditionalFiles == nil {
		t.Fatalf("additional files should render as an empty list")
	}

	summary := renderPipeline(p, false)
	if summary.Steps != nil {
		t.Fatalf("summary should omit steps")
	}
}
