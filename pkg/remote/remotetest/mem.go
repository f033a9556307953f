// Package remotetest provides an in-memory remote.Client for tests.
package remotetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Mem is an in-memory remote filesystem. Zero-value maps are not
// usable; construct with New.
type Mem struct {
	Files     map[string][]byte
	Dirs      map[string]bool
	Connected bool

	// ConnectErr makes Connect fail
	ConnectErr error

	// FailPath makes Get/Put on that path fail with FailErr
	FailPath string
	FailErr  error

	// OnChunk is invoked for every transferred chunk
	OnChunk func()

	// Counters for assertions
	ConnectCalls    int
	DisconnectCalls int
}

// New creates a connected in-memory remote with a root directory
func New() *Mem {
	return &Mem{
		Files:     make(map[string][]byte),
		Dirs:      map[string]bool{"/": true},
		Connected: true,
	}
}

func (m *Mem) Connect(ctx context.Context) error {
	m.ConnectCalls++
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *Mem) Disconnect() error {
	m.DisconnectCalls++
	m.Connected = false
	return nil
}

func (m *Mem) IsConnected() bool { return m.Connected }

func (m *Mem) Getwd() (string, error) {
	if !m.Connected {
		return "", remote.ErrNotConnected
	}
	return "/", nil
}

func (m *Mem) List(ctx context.Context, dir string) ([]fs.Entry, error) {
	if !m.Connected {
		return nil, remote.ErrNotConnected
	}
	if !m.Dirs[dir] {
		return nil, fmt.Errorf("no such directory: %s", dir)
	}
	var entries []fs.Entry
	seen := map[string]bool{}
	for p, data := range m.Files {
		if path.Dir(p) == dir && !seen[path.Base(p)] {
			seen[path.Base(p)] = true
			entries = append(entries, fs.Entry{
				Name: path.Base(p), Path: p, Kind: fs.KindFile,
				Size: int64(len(data)), ModTime: time.Now(), Mode: 0644,
			})
		}
	}
	for d := range m.Dirs {
		if d != "/" && path.Dir(d) == dir && !seen[path.Base(d)] {
			seen[path.Base(d)] = true
			entries = append(entries, fs.Entry{
				Name: path.Base(d), Path: d, Kind: fs.KindDirectory, Mode: 0755,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Mem) Stat(ctx context.Context, p string) (fs.Entry, error) {
	if !m.Connected {
		return fs.Entry{}, remote.ErrNotConnected
	}
	if data, ok := m.Files[p]; ok {
		return fs.Entry{Name: path.Base(p), Path: p, Kind: fs.KindFile, Size: int64(len(data))}, nil
	}
	if m.Dirs[p] {
		return fs.Entry{Name: path.Base(p), Path: p, Kind: fs.KindDirectory}, nil
	}
	return fs.Entry{}, os.ErrNotExist
}

func (m *Mem) Get(ctx context.Context, remotePath string, dst io.Writer, onProgress remote.ProgressFunc) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	if remotePath == m.FailPath {
		return m.FailErr
	}
	data, ok := m.Files[remotePath]
	if !ok {
		return fmt.Errorf("no such file: %s", remotePath)
	}
	_, err := remote.CopyChunks(dst, bytes.NewReader(data), m.wrapProgress(onProgress))
	return err
}

func (m *Mem) Put(ctx context.Context, src io.Reader, size int64, remotePath string, onProgress remote.ProgressFunc) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	if remotePath == m.FailPath {
		return m.FailErr
	}
	var buf bytes.Buffer
	if _, err := remote.CopyChunks(&buf, src, m.wrapProgress(onProgress)); err != nil {
		return err
	}
	m.Files[remotePath] = buf.Bytes()
	return nil
}

func (m *Mem) wrapProgress(onProgress remote.ProgressFunc) remote.ProgressFunc {
	return func(n int64) error {
		if m.OnChunk != nil {
			m.OnChunk()
		}
		if onProgress != nil {
			return onProgress(n)
		}
		return nil
	}
}

func (m *Mem) Mkdir(ctx context.Context, p string) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	m.Dirs[p] = true
	return nil
}

func (m *Mem) Remove(ctx context.Context, p string) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	if _, ok := m.Files[p]; ok {
		delete(m.Files, p)
		return nil
	}
	if m.Dirs[p] {
		for k := range m.Files {
			if strings.HasPrefix(k, p+"/") {
				delete(m.Files, k)
			}
		}
		for k := range m.Dirs {
			if strings.HasPrefix(k, p+"/") {
				delete(m.Dirs, k)
			}
		}
		delete(m.Dirs, p)
		return nil
	}
	return os.ErrNotExist
}

func (m *Mem) Rename(ctx context.Context, oldPath, newPath string) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	data, ok := m.Files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	delete(m.Files, oldPath)
	m.Files[newPath] = data
	return nil
}

func (m *Mem) Symlink(ctx context.Context, target, linkPath string) error {
	if !m.Connected {
		return remote.ErrNotConnected
	}
	return nil
}

func (m *Mem) Exec(ctx context.Context, command string) (string, error) {
	if !m.Connected {
		return "", remote.ErrNotConnected
	}
	return "output of " + command, nil
}
