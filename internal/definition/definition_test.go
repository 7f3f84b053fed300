package definition

import (
	"errors"
	"strings"
	"testing"

	"github.com/conveyor-data/conveyor-go/internal/steps/streaming"
)

const validYAML = `
schema: conveyor.pipeline.v1
name: wordcount
description: word frequency over raw logs
cluster:
  ami_version: "4.1.0"
data:
  bucket: etl-data
  prefix: pipelines
steps:
  - name: count
    type: emr-streaming
    streaming:
      mapper: s3://etl-scripts/word_mapper.py
      reducer: s3://etl-scripts/word_reducer.py
      input_path: s3://etl-data/raw/logs
  - name: rollup
    type: emr-streaming
    streaming:
      mapper: s3://etl-scripts/rollup_mapper.py
      input_node: count
`

func TestParseValid(t *testing.T) {
	def, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() err=%v", err)
	}
	if def.Name != "wordcount" {
		t.Fatalf("name=%q, want wordcount", def.Name)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("steps=%d, want 2", len(def.Steps))
	}
	if def.Steps[1].Streaming.InputNode != "count" {
		t.Fatalf("input_node=%q, want count", def.Steps[1].Streaming.InputNode)
	}
}

func TestParseRejectsWrongSchema(t *testing.T) {
	doc := strings.Replace(validYAML, "conveyor.pipeline.v1", "conveyor.pipeline.v0", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestParseRejectsConflictingInput(t *testing.T) {
	doc := strings.Replace(validYAML, "input_node: count", "input_node: count\n      input_path: s3://etl-data/other", 1)
	_, err := Parse([]byte(doc))
	if !errors.Is(err, streaming.ErrConflictingInput) {
		t.Fatalf("Parse() err=%v, want ErrConflictingInput", err)
	}
}

func TestParseRejectsUnknownInputNode(t *testing.T) {
	doc := strings.Replace(validYAML, "input_node: count", "input_node: missing", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected unknown input_node error")
	}
}

func TestParseRejectsUnknownStepType(t *testing.T) {
	doc := strings.Replace(validYAML, "type: emr-streaming", "type: emr-spark", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

func TestParseRejectsDuplicateStepNames(t *testing.T) {
	doc := strings.Replace(validYAML, "name: rollup", "name: count", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestParseRejectsLocalMapper(t *testing.T) {
	doc := strings.Replace(validYAML, "s3://etl-scripts/word_mapper.py", "scripts/word_mapper.py", 1)
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("expected error for non-s3 mapper")
	}
}
