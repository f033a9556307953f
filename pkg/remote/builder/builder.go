// Package builder constructs a remote client from connection parameters.
package builder

import (
	"fmt"

	"github.com/vantran/ferry/pkg/remote"
	"github.com/vantran/ferry/pkg/remote/s3fs"
	"github.com/vantran/ferry/pkg/remote/sftpfs"
)

// Build selects and constructs the backend for the given parameters.
// An unknown protocol is a construction-time failure; the activity
// treats it as fatal.
func Build(params remote.Params) (remote.Client, error) {
	switch params.Protocol {
	case remote.ProtocolSFTP:
		return sftpfs.New(params)
	case remote.ProtocolS3:
		return s3fs.New(params)
	default:
		return nil, fmt.Errorf("%w: %q", remote.ErrUnsupportedProtocol, params.Protocol)
	}
}
