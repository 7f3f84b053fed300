package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conveyor-data/conveyor-go/internal/platform/env"
)

type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	BucketScripts string
	BucketData    string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("CONVEYOR_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:      env.String("CONVEYOR_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:     env.String("CONVEYOR_MINIO_ACCESS_KEY", "conveyor"),
		SecretKey:     env.String("CONVEYOR_MINIO_SECRET_KEY", "conveyorminio"),
		Region:        env.String("CONVEYOR_MINIO_REGION", "us-east-1"),
		UseSSL:        useSSL,
		BucketScripts: env.String("CONVEYOR_MINIO_BUCKET_SCRIPTS", "scripts"),
		BucketData:    env.String("CONVEYOR_MINIO_BUCKET_DATA", "pipeline-data"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketScripts) == "" {
		return errors.New("scripts bucket is required")
	}
	if strings.TrimSpace(c.BucketData) == "" {
		return errors.New("data bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
