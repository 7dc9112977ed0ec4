package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "judge_service.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, `
minio:
  endpoint: "127.0.0.1:9000"
  accessKey: "a"
  secretKey: "s"
  bucket: "judge-src"
`))
	if err != nil {
		t.Fatalf("loadAppConfig: %v", err)
	}
	if cfg.Server.Addr != defaultHTTPAddr {
		t.Errorf("addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.Status.TTL != defaultStatusTTL {
		t.Errorf("status ttl = %v, want default", cfg.Status.TTL)
	}
	// The MinIO bucket doubles as the source archive bucket unless intake
	// overrides it.
	if cfg.Intake.SourceBucket != "judge-src" {
		t.Errorf("source bucket = %q, want judge-src", cfg.Intake.SourceBucket)
	}
}

func TestLoadAppConfigIntakeBucketOverride(t *testing.T) {
	cfg, err := loadAppConfig(writeConfig(t, `
minio:
  bucket: "default-bucket"
intake:
  sourceBucket: "archive"
`))
	if err != nil {
		t.Fatalf("loadAppConfig: %v", err)
	}
	if cfg.Intake.SourceBucket != "archive" {
		t.Errorf("source bucket = %q, want archive", cfg.Intake.SourceBucket)
	}
}
