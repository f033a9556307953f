// Package sftpfs implements the remote client over SFTP.
package sftpfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Client is an SFTP-backed remote filesystem
type Client struct {
	params     remote.Params
	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// New creates an unconnected SFTP client for the given parameters
func New(params remote.Params) (*Client, error) {
	if params.Host == "" {
		return nil, errors.New("host is required")
	}
	if params.Port <= 0 || params.Port > 65535 {
		return nil, errors.New("invalid port number")
	}
	if params.Username == "" {
		return nil, errors.New("username is required")
	}
	return &Client{params: params}, nil
}

// hostKeyCallback verifies against ~/.ssh/known_hosts, falling back to
// accepting unknown hosts when the file cannot be used
func hostKeyCallback() ssh.HostKeyCallback {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ssh.InsecureIgnoreHostKey()
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")
	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return ssh.InsecureIgnoreHostKey()
	}
	return callback
}

func (c *Client) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if c.params.Password != "" {
		methods = append(methods, ssh.Password(c.params.Password))
	}
	if c.params.KeyPath != "" {
		content, err := os.ReadFile(c.params.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(content)
		if err != nil {
			if c.params.KeyPassword != "" {
				signer, err = ssh.ParsePrivateKeyWithPassphrase(content, []byte(c.params.KeyPassword))
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse private key: %w", err)
			}
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if len(methods) == 0 {
		return nil, errors.New("no authentication method configured")
	}
	return methods, nil
}

// Connect dials the SSH server and opens the SFTP subsystem
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	methods, err := c.authMethods()
	if err != nil {
		return err
	}

	sshConfig := &ssh.ClientConfig{
		User:            c.params.Username,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback(),
		Timeout:         30 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", c.params.Host, c.params.Port)
	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return fmt.Errorf("failed to open sftp subsystem: %w", err)
	}

	c.sshClient = sshClient
	c.sftpClient = sftpClient
	return nil
}

// Disconnect closes the SFTP and SSH sessions. Safe to call when
// already disconnected.
func (c *Client) Disconnect() error {
	var err error
	if c.sftpClient != nil {
		err = c.sftpClient.Close()
		c.sftpClient = nil
	}
	if c.sshClient != nil {
		if cerr := c.sshClient.Close(); err == nil {
			err = cerr
		}
		c.sshClient = nil
	}
	return err
}

// IsConnected probes liveness with a cheap stat on the remote root
func (c *Client) IsConnected() bool {
	if c.sftpClient == nil {
		return false
	}
	if _, err := c.sftpClient.Getwd(); err != nil {
		return false
	}
	return true
}

// Getwd returns the remote working directory
func (c *Client) Getwd() (string, error) {
	if c.sftpClient == nil {
		return "", remote.ErrNotConnected
	}
	if c.params.EntryDir != "" {
		return c.params.EntryDir, nil
	}
	return c.sftpClient.Getwd()
}

// wrap converts transport-level failures into ErrConnectionLost so the
// executor can route them to reconnect instead of failing the entry
func (c *Client) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sftp.ErrSSHFxConnectionLost) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", op, remote.ErrConnectionLost)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// List lists a remote directory as a fresh snapshot
func (c *Client) List(ctx context.Context, dir string) ([]fs.Entry, error) {
	if c.sftpClient == nil {
		return nil, remote.ErrNotConnected
	}
	infos, err := c.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, c.wrap("list", err)
	}

	entries := make([]fs.Entry, 0, len(infos))
	for _, info := range infos {
		entry := fs.Entry{
			Name:    info.Name(),
			Path:    path.Join(dir, info.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			entry.Kind = fs.KindSymlink
			if target, err := c.sftpClient.ReadLink(entry.Path); err == nil {
				entry.Target = target
			}
		case info.IsDir():
			entry.Kind = fs.KindDirectory
		default:
			entry.Kind = fs.KindFile
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stat returns the entry for a single remote path
func (c *Client) Stat(ctx context.Context, p string) (fs.Entry, error) {
	if c.sftpClient == nil {
		return fs.Entry{}, remote.ErrNotConnected
	}
	info, err := c.sftpClient.Lstat(p)
	if err != nil {
		return fs.Entry{}, err
	}
	entry := fs.Entry{
		Name:    path.Base(p),
		Path:    p,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		entry.Kind = fs.KindSymlink
	case info.IsDir():
		entry.Kind = fs.KindDirectory
	default:
		entry.Kind = fs.KindFile
	}
	return entry, nil
}

// Get downloads a remote file into dst, reporting chunk progress
func (c *Client) Get(ctx context.Context, remotePath string, dst io.Writer, onProgress remote.ProgressFunc) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	src, err := c.sftpClient.Open(remotePath)
	if err != nil {
		return c.wrap("get", err)
	}
	defer src.Close()

	if _, err := remote.CopyChunks(dst, src, onProgress); err != nil {
		return c.wrap("get", err)
	}
	return nil
}

// Put uploads src to a remote file, reporting chunk progress
func (c *Client) Put(ctx context.Context, src io.Reader, size int64, remotePath string, onProgress remote.ProgressFunc) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	dst, err := c.sftpClient.Create(remotePath)
	if err != nil {
		return c.wrap("put", err)
	}
	defer dst.Close()

	if _, err := remote.CopyChunks(dst, src, onProgress); err != nil {
		return c.wrap("put", err)
	}
	return nil
}

// Mkdir creates a remote directory, parents included
func (c *Client) Mkdir(ctx context.Context, p string) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	return c.wrap("mkdir", c.sftpClient.MkdirAll(p))
}

// Remove deletes a remote file or directory tree
func (c *Client) Remove(ctx context.Context, p string) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	info, err := c.sftpClient.Lstat(p)
	if err != nil {
		return c.wrap("remove", err)
	}
	if !info.IsDir() {
		return c.wrap("remove", c.sftpClient.Remove(p))
	}
	return c.wrap("remove", c.removeTree(ctx, p))
}

func (c *Client) removeTree(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	infos, err := c.sftpClient.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, info := range infos {
		child := path.Join(dir, info.Name())
		if info.IsDir() {
			if err := c.removeTree(ctx, child); err != nil {
				return err
			}
		} else if err := c.sftpClient.Remove(child); err != nil {
			return err
		}
	}
	return c.sftpClient.RemoveDirectory(dir)
}

// Rename moves a remote file
func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	return c.wrap("rename", c.sftpClient.Rename(oldPath, newPath))
}

// Symlink creates a remote symbolic link pointing at target
func (c *Client) Symlink(ctx context.Context, target, linkPath string) error {
	if c.sftpClient == nil {
		return remote.ErrNotConnected
	}
	return c.wrap("symlink", c.sftpClient.Symlink(target, linkPath))
}

// Exec runs a command on the remote host over a fresh SSH session and
// returns its combined output
func (c *Client) Exec(ctx context.Context, command string) (string, error) {
	if c.sshClient == nil {
		return "", remote.ErrNotConnected
	}
	session, err := c.sshClient.NewSession()
	if err != nil {
		return "", c.wrap("exec", err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("exec %q: %w", command, err)
	}
	return string(output), nil
}
