package domain

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// S3Path is a fully qualified object storage location. Immutable once
// constructed.
type S3Path struct {
	Bucket string
	Key    string
}

// ParseS3Path parses an s3://bucket/key address.
func ParseS3Path(uri string) (S3Path, error) {
	trimmed := strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(trimmed, "s3://")
	if !ok {
		return S3Path{}, fmt.Errorf("address must start with s3://: %q", uri)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return S3Path{}, fmt.Errorf("address has no bucket: %q", uri)
	}
	return S3Path{Bucket: bucket, Key: key}, nil
}

func (p S3Path) URI() string {
	if p.Key == "" {
		return "s3://" + p.Bucket
	}
	return "s3://" + p.Bucket + "/" + p.Key
}

// BaseFilename is the last key segment, or empty for bucket roots and
// directory-style keys.
func (p S3Path) BaseFilename() string {
	if p.Key == "" || strings.HasSuffix(p.Key, "/") {
		return ""
	}
	return path.Base(p.Key)
}

// Join returns a path below p with the given key segments appended.
func (p S3Path) Join(elem ...string) S3Path {
	parts := append([]string{p.Key}, elem...)
	return S3Path{Bucket: p.Bucket, Key: strings.TrimPrefix(path.Join(parts...), "/")}
}

func (p S3Path) Validate() error {
	if strings.TrimSpace(p.Bucket) == "" {
		return errors.New("bucket is required")
	}
	return nil
}

// ScriptFile is a step script resolved to a durable object storage location.
type ScriptFile struct {
	Path S3Path
}

// NewScriptFile builds a script location from a bucket and object key.
func NewScriptFile(bucket, key string) (ScriptFile, error) {
	script := ScriptFile{Path: S3Path{Bucket: strings.TrimSpace(bucket), Key: strings.Trim(strings.TrimSpace(key), "/")}}
	if err := script.Validate(); err != nil {
		return ScriptFile{}, err
	}
	return script, nil
}

// ParseScriptFile parses an s3:// script address.
func ParseScriptFile(uri string) (ScriptFile, error) {
	p, err := ParseS3Path(uri)
	if err != nil {
		return ScriptFile{}, err
	}
	script := ScriptFile{Path: p}
	if err := script.Validate(); err != nil {
		return ScriptFile{}, fmt.Errorf("%w: %q", err, uri)
	}
	return script, nil
}

func (f ScriptFile) URI() string {
	return f.Path.URI()
}

func (f ScriptFile) BaseFilename() string {
	return f.Path.BaseFilename()
}

func (f ScriptFile) Validate() error {
	if err := f.Path.Validate(); err != nil {
		return err
	}
	if f.Path.BaseFilename() == "" {
		return errors.New("script address has no filename")
	}
	return nil
}
