// Package s3fs implements the remote client over S3-compatible object
// storage. Keys are mapped to a directory tree using "/" delimiters;
// directories are common prefixes plus zero-byte ".../" marker objects.
package s3fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vantran/ferry/pkg/fs"
	"github.com/vantran/ferry/pkg/remote"
)

// Client is an S3-backed remote filesystem
type Client struct {
	params remote.Params
	s3     *s3.Client
	bucket string
}

// New creates an unconnected S3 client for the given parameters
func New(params remote.Params) (*Client, error) {
	if params.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if params.AccessKey == "" || params.SecretKey == "" {
		return nil, errors.New("missing S3 credentials")
	}
	return &Client{params: params, bucket: params.Bucket}, nil
}

// Connect builds the SDK client and verifies the bucket is reachable
func (c *Client) Connect(ctx context.Context) error {
	if c.s3 != nil {
		return nil
	}

	region := c.params.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.params.AccessKey, c.params.SecretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.params.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.params.Endpoint)
		}
		// Path-style for MinIO and other S3-compatible stores
		o.UsePathStyle = true
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not reachable: %w", c.bucket, err)
	}

	c.s3 = client
	return nil
}

// Disconnect drops the SDK client. Safe when already disconnected.
func (c *Client) Disconnect() error {
	c.s3 = nil
	return nil
}

// IsConnected reports whether a client is held. Object storage has no
// session to probe; request failures surface per operation instead.
func (c *Client) IsConnected() bool {
	return c.s3 != nil
}

// Getwd returns the initial browsing prefix
func (c *Client) Getwd() (string, error) {
	if c.s3 == nil {
		return "", remote.ErrNotConnected
	}
	if c.params.EntryDir != "" {
		return c.params.EntryDir, nil
	}
	return "/", nil
}

// keyFor maps an absolute browse path to an object key
func keyFor(p string) string {
	return strings.TrimPrefix(path.Clean(p), "/")
}

// prefixFor maps an absolute browse path to a listing prefix
func prefixFor(p string) string {
	key := keyFor(p)
	if key == "" || key == "." {
		return ""
	}
	return key + "/"
}

// List lists one directory level under the given path
func (c *Client) List(ctx context.Context, dir string) ([]fs.Entry, error) {
	if c.s3 == nil {
		return nil, remote.ErrNotConnected
	}

	prefix := prefixFor(dir)
	var entries []fs.Entry

	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, fs.Entry{
				Name: name,
				Path: path.Join("/", prefix, name),
				Kind: fs.KindDirectory,
				Mode: 0755,
			})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				// The directory marker itself or a nested key
				continue
			}
			modTime := time.Time{}
			if obj.LastModified != nil {
				modTime = *obj.LastModified
			}
			entries = append(entries, fs.Entry{
				Name:    name,
				Path:    path.Join("/", prefix, name),
				Kind:    fs.KindFile,
				Size:    aws.ToInt64(obj.Size),
				ModTime: modTime,
				Mode:    0644,
			})
		}
	}
	return entries, nil
}

// Stat resolves a path to an object or a common prefix
func (c *Client) Stat(ctx context.Context, p string) (fs.Entry, error) {
	if c.s3 == nil {
		return fs.Entry{}, remote.ErrNotConnected
	}

	key := keyFor(p)
	head, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		modTime := time.Time{}
		if head.LastModified != nil {
			modTime = *head.LastModified
		}
		return fs.Entry{
			Name:    path.Base(p),
			Path:    p,
			Kind:    fs.KindFile,
			Size:    aws.ToInt64(head.ContentLength),
			ModTime: modTime,
			Mode:    0644,
		}, nil
	}

	// Not an object; a non-empty listing under the prefix means directory
	out, lerr := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		Prefix:  aws.String(prefixFor(p)),
		MaxKeys: aws.Int32(1),
	})
	if lerr == nil && aws.ToInt32(out.KeyCount) > 0 {
		return fs.Entry{Name: path.Base(p), Path: p, Kind: fs.KindDirectory, Mode: 0755}, nil
	}
	return fs.Entry{}, err
}

// Get downloads an object into dst
func (c *Client) Get(ctx context.Context, remotePath string, dst io.Writer, onProgress remote.ProgressFunc) error {
	if c.s3 == nil {
		return remote.ErrNotConnected
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(keyFor(remotePath)),
	})
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer out.Body.Close()

	if _, err := remote.CopyChunks(dst, out.Body, onProgress); err != nil {
		return fmt.Errorf("get: %w", err)
	}
	return nil
}

// Put uploads src as an object. Progress is reported through a reader
// wrapper since the SDK consumes the stream itself.
func (c *Client) Put(ctx context.Context, src io.Reader, size int64, remotePath string, onProgress remote.ProgressFunc) error {
	if c.s3 == nil {
		return remote.ErrNotConnected
	}
	body := src
	if onProgress != nil {
		body = &progressReader{r: src, onProgress: onProgress}
	}
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(keyFor(remotePath)),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	return nil
}

type progressReader struct {
	r          io.Reader
	onProgress remote.ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		if perr := pr.onProgress(int64(n)); perr != nil {
			return n, perr
		}
	}
	return n, err
}

// Mkdir creates a zero-byte directory marker
func (c *Client) Mkdir(ctx context.Context, p string) error {
	if c.s3 == nil {
		return remote.ErrNotConnected
	}
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(prefixFor(p)),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return nil
}

// Remove deletes an object, or every key under a prefix for directories
func (c *Client) Remove(ctx context.Context, p string) error {
	if c.s3 == nil {
		return remote.ErrNotConnected
	}

	entry, err := c.Stat(ctx, p)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	if entry.Kind != fs.KindDirectory {
		_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(keyFor(p)),
		})
		if err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		return nil
	}

	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefixFor(p)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		for _, obj := range page.Contents {
			_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(c.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return fmt.Errorf("remove: %w", err)
			}
		}
	}
	return nil
}

// Rename copies then deletes; S3 has no native move
func (c *Client) Rename(ctx context.Context, oldPath, newPath string) error {
	if c.s3 == nil {
		return remote.ErrNotConnected
	}
	_, err := c.s3.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.bucket),
		CopySource: aws.String(path.Join(c.bucket, keyFor(oldPath))),
		Key:        aws.String(keyFor(newPath)),
	})
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	_, err = c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(keyFor(oldPath)),
	})
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Symlink is not supported by object storage
func (c *Client) Symlink(ctx context.Context, target, linkPath string) error {
	return errors.New("symlinks are not supported by s3")
}

// Exec is not supported by object storage
func (c *Client) Exec(ctx context.Context, command string) (string, error) {
	return "", errors.New("exec is not supported by s3")
}
