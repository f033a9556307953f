package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/vantran/ferry/pkg/config"
	"github.com/vantran/ferry/pkg/remote"
	"github.com/vantran/ferry/pkg/remote/builder"
	"github.com/vantran/ferry/pkg/tui"
)

func main() {
	keyPath := flag.String("key", "", "path to the SSH private key")
	password := flag.String("password", "", "password (SFTP) or secret key (S3); prefer FERRY_PASSWORD")
	region := flag.String("region", "", "S3 region")
	endpoint := flag.String("endpoint", "", "custom S3 endpoint")
	accessKey := flag.String("access-key", "", "S3 access key id")
	localDir := flag.String("local-dir", "", "initial local working directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	dataDir, err := config.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(
		filepath.Join(dataDir, "debug.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o600,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(tint.NewHandler(logFile, &tint.Options{NoColor: true})))

	cfg, err := config.Load(dataDir)
	if err != nil {
		slog.Error("Error loading configuration", "error", err)
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *localDir != "" {
		if err := os.Chdir(*localDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	params, err := parseAddress(flag.Arg(0), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	params.KeyPath = *keyPath
	params.Region = *region
	params.Endpoint = *endpoint
	if *accessKey != "" {
		params.AccessKey = *accessKey
	}
	if secret := os.Getenv("FERRY_PASSWORD"); secret != "" {
		params.Password = secret
		params.SecretKey = secret
	}
	if *password != "" {
		params.Password = *password
		params.SecretKey = *password
	}
	if pass := os.Getenv("FERRY_KEY_PASSWORD"); pass != "" {
		params.KeyPassword = pass
	}

	// A build failure still starts the UI so the error shows up in the
	// fatal popup instead of a bare stderr line
	client, buildErr := builder.Build(params)
	if buildErr != nil {
		slog.Error("Error building remote client", "error", buildErr)
	}

	p := tea.NewProgram(
		tui.New(context.Background(), cfg, client, buildErr),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		slog.Error("Error running program", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `ferry - dual-pane file transfer client

Usage:
  ferry [flags] sftp://[user@]host[:port][/path]
  ferry [flags] s3://bucket[/path]

Flags:
`)
	flag.PrintDefaults()
}

// parseAddress turns the positional address into connection parameters,
// filling defaults from configuration
func parseAddress(raw string, cfg *config.Provider) (remote.Params, error) {
	settings := cfg.Settings()
	u, err := url.Parse(raw)
	if err != nil {
		return remote.Params{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}

	switch remote.Protocol(u.Scheme) {
	case remote.ProtocolSFTP:
		params := remote.Params{
			Protocol: remote.ProtocolSFTP,
			Host:     u.Hostname(),
			Port:     settings.DefaultSSHPort,
			Username: settings.DefaultUsername,
			EntryDir: strings.TrimSuffix(u.Path, "/"),
		}
		if params.EntryDir == "" {
			params.EntryDir = settings.RemoteEntryDir
		}
		if u.User != nil {
			params.Username = u.User.Username()
			if pass, ok := u.User.Password(); ok {
				params.Password = pass
			}
		}
		if port := u.Port(); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return remote.Params{}, fmt.Errorf("invalid port %q", port)
			}
			params.Port = p
		}
		if params.Host == "" {
			return remote.Params{}, fmt.Errorf("missing host in %q", raw)
		}
		return params, nil

	case remote.ProtocolS3:
		params := remote.Params{
			Protocol:  remote.ProtocolS3,
			Bucket:    u.Host,
			EntryDir:  strings.TrimSuffix(u.Path, "/"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Region:    os.Getenv("AWS_REGION"),
		}
		if params.Bucket == "" {
			return remote.Params{}, fmt.Errorf("missing bucket in %q", raw)
		}
		return params, nil
	}
	return remote.Params{}, fmt.Errorf("%w: %s", remote.ErrUnsupportedProtocol, u.Scheme)
}
