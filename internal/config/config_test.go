package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/blik/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), c); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "blik.toml",
			content: `
log_level = "debug"

[cache]
backend = "redis"

[cache.redis]
addr = "cache:6379"
db = 2

[depict]
vector_length = 4.5
`,
		},
		{
			name: "yaml",
			file: "blik.yaml",
			content: `
log_level: debug
cache:
  backend: redis
  redis:
    addr: cache:6379
    db: 2
depict:
  vector_length: 4.5
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			want := Default()
			want.LogLevel = "debug"
			want.Cache.Backend = BackendRedis
			want.Cache.Redis.Addr = "cache:6379"
			want.Cache.Redis.DB = 2
			want.Depict.VectorLength = 4.5
			if diff := cmp.Diff(want, c); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "blik.toml", "[server]\naddr = \"0.0.0.0:1\"\n")
	t.Setenv("BLIK_SERVER__ADDR", "127.0.0.1:9000")
	t.Setenv("BLIK_LOAD__STRICT", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", c.Server.Addr)
	}
	if !c.Load.Strict {
		t.Error("Load.Strict not set from the environment")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"unknown extension", writeConfig(t, "blik.ini", "x=1"), errors.ErrCodeUnsupported},
		{"missing file", filepath.Join(t.TempDir(), "absent.toml"), errors.ErrCodeInvalidInput},
		{"bad backend", writeConfig(t, "blik.toml", "[cache]\nbackend = \"s3\"\n"), errors.ErrCodeInvalidInput},
		{"negative pixel size", writeConfig(t, "blik.yml", "load:\n  pixel_size: -1\n"), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTOMLRoundTrip(t *testing.T) {
	want := Default()
	want.Load.PixelSize = 1.35
	text, err := want.TOML()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Load(writeConfig(t, "blik.toml", text))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
