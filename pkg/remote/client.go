// Package remote defines the transport capability the engine drives.
// Concrete backends (SFTP, S3) live in subpackages and are selected by
// the Builder from connection parameters.
package remote

import (
	"context"
	"errors"
	"io"

	"github.com/vantran/ferry/pkg/fs"
)

// Typed transport errors. ErrConnectionLost is what the executor checks
// to decide between per-entry failure and pausing the whole queue.
var (
	ErrNotConnected        = errors.New("not connected")
	ErrConnectionLost      = errors.New("connection lost")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// ProgressFunc is invoked once per transferred chunk. Returning an error
// stops the copy at the next chunk boundary; this is how cooperative
// abort reaches an in-flight transfer.
type ProgressFunc func(bytes int64) error

// Client is the remote filesystem capability. All blocking operations
// take a context; implementations issue every call from the single tick
// thread, so they need no internal locking for the engine's sake.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	Getwd() (string, error)
	List(ctx context.Context, path string) ([]fs.Entry, error)
	Stat(ctx context.Context, path string) (fs.Entry, error)
	Get(ctx context.Context, remotePath string, dst io.Writer, onProgress ProgressFunc) error
	Put(ctx context.Context, src io.Reader, size int64, remotePath string, onProgress ProgressFunc) error
	Mkdir(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Symlink(ctx context.Context, target, linkPath string) error
	Exec(ctx context.Context, command string) (string, error)
}

const copyChunkSize = 64 * 1024

// CopyChunks copies src to dst in fixed-size chunks, reporting each chunk
// to onProgress. A progress error (abort, connection routing) aborts the
// copy at the boundary of the chunk that observed it.
func CopyChunks(dst io.Writer, src io.Reader, onProgress ProgressFunc) (int64, error) {
	buf := make([]byte, copyChunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
			if onProgress != nil {
				if perr := onProgress(int64(wn)); perr != nil {
					return written, perr
				}
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, rerr
		}
	}
}
