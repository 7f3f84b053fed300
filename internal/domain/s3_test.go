package domain

import "testing"

func TestParseS3Path(t *testing.T) {
	p, err := ParseS3Path("s3://bucket/scripts/word_mapper.py")
	if err != nil {
		t.Fatalf("ParseS3Path() err=%v", err)
	}
	if p.Bucket != "bucket" {
		t.Fatalf("bucket=%q, want bucket", p.Bucket)
	}
	if p.Key != "scripts/word_mapper.py" {
		t.Fatalf("key=%q", p.Key)
	}
	if got := p.URI(); got != "s3://bucket/scripts/word_mapper.py" {
		t.Fatalf("URI()=%q", got)
	}
	if got := p.BaseFilename(); got != "word_mapper.py" {
		t.Fatalf("BaseFilename()=%q, want word_mapper.py", got)
	}
}

func TestParseS3PathRejectsOtherSchemes(t *testing.T) {
	if _, err := ParseS3Path("hdfs://bucket/key"); err == nil {
		t.Fatalf("expected error for non-s3 scheme")
	}
	if _, err := ParseS3Path("s3://"); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestBaseFilenameDirectory(t *testing.T) {
	p := S3Path{Bucket: "bucket", Key: "data/output/"}
	if got := p.BaseFilename(); got != "" {
		t.Fatalf("BaseFilename()=%q, want empty for directory key", got)
	}
	root := S3Path{Bucket: "bucket"}
	if got := root.BaseFilename(); got != "" {
		t.Fatalf("BaseFilename()=%q, want empty for bucket root", got)
	}
	if got := root.URI(); got != "s3://bucket" {
		t.Fatalf("URI()=%q, want s3://bucket", got)
	}
}

func TestJoin(t *testing.T) {
	p := S3Path{Bucket: "bucket", Key: "prefix"}
	got := p.Join("wordcount", "run-1", "count")
	if got.URI() != "s3://bucket/prefix/wordcount/run-1/count" {
		t.Fatalf("Join()=%q", got.URI())
	}

	root := S3Path{Bucket: "bucket"}
	if got := root.Join("a").URI(); got != "s3://bucket/a" {
		t.Fatalf("Join() from root=%q", got)
	}
}

func TestParseScriptFile(t *testing.T) {
	f, err := ParseScriptFile("s3://bucket/word_mapper.py")
	if err != nil {
		t.Fatalf("ParseScriptFile() err=%v", err)
	}
	if f.URI() != "s3://bucket/word_mapper.py" {
		t.Fatalf("URI()=%q", f.URI())
	}
	if f.BaseFilename() != "word_mapper.py" {
		t.Fatalf("BaseFilename()=%q", f.BaseFilename())
	}
}

func TestParseScriptFileRejectsDirectories(t *testing.T) {
	if _, err := ParseScriptFile("s3://bucket/scripts/"); err == nil {
		t.Fatalf("expected error for directory address")
	}
	if _, err := ParseScriptFile("s3://bucket"); err == nil {
		t.Fatalf("expected error for bucket root")
	}
}
