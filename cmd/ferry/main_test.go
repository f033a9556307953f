package main

import (
	"testing"

	"github.com/vantran/ferry/pkg/config"
	"github.com/vantran/ferry/pkg/remote"
)

func testConfig(t *testing.T) *config.Provider {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestParseAddress(t *testing.T) {
	t.Run("Core Functionality: full sftp address", func(t *testing.T) {
		params, err := parseAddress("sftp://deploy@example.com:2222/var/www", testConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params.Protocol != remote.ProtocolSFTP {
			t.Errorf("protocol = %v", params.Protocol)
		}
		if params.Host != "example.com" || params.Port != 2222 {
			t.Errorf("endpoint = %s:%d", params.Host, params.Port)
		}
		if params.Username != "deploy" {
			t.Errorf("username = %q", params.Username)
		}
		if params.EntryDir != "/var/www" {
			t.Errorf("entry dir = %q", params.EntryDir)
		}
	})

	t.Run("Core Functionality: defaults fill missing user and port", func(t *testing.T) {
		params, err := parseAddress("sftp://example.com", testConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params.Port != 22 {
			t.Errorf("port = %d, want default 22", params.Port)
		}
		if params.Username != "root" {
			t.Errorf("username = %q, want default root", params.Username)
		}
	})

	t.Run("Core Functionality: s3 bucket and prefix", func(t *testing.T) {
		params, err := parseAddress("s3://backups/nightly", testConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params.Protocol != remote.ProtocolS3 || params.Bucket != "backups" {
			t.Errorf("bucket = %q", params.Bucket)
		}
		if params.EntryDir != "/nightly" {
			t.Errorf("entry dir = %q", params.EntryDir)
		}
	})

	t.Run("Error Handling: unknown scheme is rejected", func(t *testing.T) {
		if _, err := parseAddress("ftp://example.com", testConfig(t)); err == nil {
			t.Fatal("expected error for unsupported scheme")
		}
	})

	t.Run("Error Handling: missing host is rejected", func(t *testing.T) {
		if _, err := parseAddress("sftp:///var/www", testConfig(t)); err == nil {
			t.Fatal("expected error for missing host")
		}
	})
}
