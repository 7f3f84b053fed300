package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/conveyor-data/conveyor-go/internal/domain"
)

// UploadScript stores a step script under the scripts bucket and returns its
// durable location. The key keeps the original filename as the last segment
// so the streaming launcher can reference the script by base name.
func UploadScript(ctx context.Context, client *minio.Client, cfg Config, key string, r io.Reader, size int64, contentType string) (domain.ScriptFile, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return domain.ScriptFile{}, fmt.Errorf("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := client.PutObject(ctx, cfg.BucketScripts, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return domain.ScriptFile{}, fmt.Errorf("put script object: %w", err)
	}

	script, err := domain.NewScriptFile(cfg.BucketScripts, key)
	if err != nil {
		return domain.ScriptFile{}, err
	}
	return script, nil
}
