package postgres

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/conveyor-data/conveyor-go/internal/repo"
)

func TestStringListRoundTrip(t *testing.T) {
	encoded, err := encodeStringList([]string{"s3://bucket/mapper.py", "s3://bucket/reducer.py"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeStringList(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := []string{"s3://bucket/mapper.py", "s3://bucket/reducer.py"}; !reflect.DeepEqual(decoded, want) {
		t.Fatalf("decoded=%v, want %v", decoded, want)
	}
}

func TestDecodeStringListEmpty(t *testing.T) {
	decoded, err := decodeStringList(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Fatalf("expected empty slice, got %v", decoded)
	}
}

func TestRequireIntegrity(t *testing.T) {
	if err := requireIntegrity("  "); err == nil {
		t.Fatalf("expected error for blank integrity")
	}
	if err := requireIntegrity("abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleNotFound(t *testing.T) {
	if err := handleNotFound(sql.ErrNoRows); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	sentinel := errors.New("boom")
	if err := handleNotFound(sentinel); !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want passthrough", err)
	}
}
