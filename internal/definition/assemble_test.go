package definition

import (
	"strings"
	"testing"
)

func TestAssembleThreadsInputNode(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}

	pipeline, err := Assemble(def, AssembleOptions{RunID: "run-7", CreatedBy: "etl@example.com"})
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}
	if pipeline.Name != "wordcount" || pipeline.RunID != "run-7" {
		t.Fatalf("pipeline=%+v", pipeline)
	}
	if len(pipeline.Steps) != 2 {
		t.Fatalf("steps=%d, want 2", len(pipeline.Steps))
	}

	count := pipeline.Steps[0]
	rollup := pipeline.Steps[1]
	if count.Name != "count" || rollup.Name != "rollup" {
		t.Fatalf("order=%q,%q", count.Name, rollup.Name)
	}
	if count.Ordinal != 0 || rollup.Ordinal != 1 {
		t.Fatalf("ordinals=%d,%d", count.Ordinal, rollup.Ordinal)
	}

	wantOutput := "s3://etl-data/pipelines/wordcount/run-7/count"
	if count.OutputURI != wantOutput {
		t.Fatalf("count output=%q, want %q", count.OutputURI, wantOutput)
	}
	if rollup.InputURI != wantOutput {
		t.Fatalf("rollup input=%q, want producer output %q", rollup.InputURI, wantOutput)
	}

	if !strings.HasPrefix(count.StepString, "/home/hadoop/contrib/streaming/hadoop-streaming.jar,") {
		t.Fatalf("step string does not start with the streaming jar: %q", count.StepString)
	}
	if !strings.Contains(count.StepString, "-mapper,word_mapper.py") {
		t.Fatalf("step string missing mapper reference: %q", count.StepString)
	}
}

func TestAssembleGeneratesRunID(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	pipeline, err := Assemble(def, AssembleOptions{})
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}
	if strings.TrimSpace(pipeline.RunID) == "" {
		t.Fatalf("expected generated run id")
	}
	if pipeline.ID == "" || pipeline.Steps[0].ID == "" {
		t.Fatalf("expected generated ids, got pipeline=%q step=%q", pipeline.ID, pipeline.Steps[0].ID)
	}
}
