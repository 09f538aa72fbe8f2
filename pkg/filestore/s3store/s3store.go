// Package s3store implements cfdp.Filestore on top of an S3-compatible
// object store, for deployments where the destination is a cloud bucket
// rather than a local disk.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/cfdpgo"
)

// maxRetries bounds how many times a retryable S3 call is retried before
// its error is surfaced to the caller as a filestore rejection.
const maxRetries = 3

// withRetry runs op, retrying transient failures with a short linear
// backoff up to maxRetries times.
func withRetry(op func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = op(); err == nil || !isRetryableError(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}

// Store is a cfdp.Filestore backed by one S3 bucket. Every cfdp path is
// treated as a key under Prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// New returns a Store for the given bucket, keying every object under
// prefix (which may be empty).
func New(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) key(path string) string {
	p := strings.TrimPrefix(path, "/")
	if s.prefix == "" {
		return p
	}
	return s.prefix + "/" + p
}

// isRetryableError reports whether err is a transient S3/network failure
// worth the caller retrying, as opposed to a permanent rejection that
// should surface as a FilestoreError immediately.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestThrottled", "SlowDown",
			"ProvisionedThroughputExceededException",
			"InternalError", "ServiceUnavailable", "ServiceException", "InternalServiceException":
			return true
		case "NoSuchKey", "NotFound", "AccessDenied", "Forbidden", "InvalidRange", "InvalidRequest":
			return false
		}
	}
	return false
}

type s3File struct {
	store *Store
	key   string
	buf   *bytes.Buffer // write buffer, flushed to PutObject on Close
}

func (f *s3File) ReadAt(p []byte, off int64) (int, error) {
	var n int
	err := withRetry(func() error {
		out, err := f.store.client.GetObject(context.Background(), &s3.GetObjectInput{
			Bucket: aws.String(f.store.bucket),
			Key:    aws.String(f.key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		n, err = io.ReadFull(out.Body, p)
		return err
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return 0, io.EOF
		}
		return n, err
	}
	return n, nil
}

func (f *s3File) WriteAt(p []byte, off int64) (int, error) {
	if f.buf == nil {
		f.buf = &bytes.Buffer{}
	}
	need := int(off) + len(p)
	if need > f.buf.Len() {
		grown := make([]byte, need)
		copy(grown, f.buf.Bytes())
		f.buf = bytes.NewBuffer(grown)
	}
	b := f.buf.Bytes()
	copy(b[off:], p)
	return len(p), nil
}

func (f *s3File) Close() error {
	if f.buf == nil {
		return nil
	}
	return withRetry(func() error {
		_, err := f.store.client.PutObject(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(f.store.bucket),
			Key:    aws.String(f.key),
			Body:   bytes.NewReader(f.buf.Bytes()),
		})
		return err
	})
}

func (s *Store) Open(ctx context.Context, path string, flag cfdp.OpenFlag) (cfdp.File, error) {
	return &s3File{store: s, key: s.key(path)}, nil
}

func (s *Store) Create(ctx context.Context, path string) (cfdp.File, error) {
	key := s.key(path)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return nil, err
	}
	return &s3File{store: s, key: key, buf: &bytes.Buffer{}}, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	return err
}

// Rename has no atomic equivalent in S3; it is implemented as copy+delete.
func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := s.copyObject(ctx, oldPath, newPath); err != nil {
		return err
	}
	return s.Delete(ctx, oldPath)
}

func (s *Store) copyObject(ctx context.Context, fromPath, toPath string) error {
	src := s.bucket + "/" + s.key(fromPath)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.key(toPath)),
		CopySource: aws.String(src),
	})
	return err
}

func (s *Store) Append(ctx context.Context, path string) (cfdp.File, error) {
	key := s.key(path)
	existing, err := s.readAll(ctx, key)
	if err != nil && !isNoSuchKey(err) {
		return nil, err
	}
	buf := bytes.NewBuffer(existing)
	return &s3File{store: s, key: key, buf: buf}, nil
}

// Replace truncates existingPath and copies replacementPath's content into
// it; implemented as a server-side copy since S3 has no in-place truncate.
func (s *Store) Replace(ctx context.Context, existingPath, replacementPath string) error {
	return s.copyObject(ctx, replacementPath, existingPath)
}

// MakeDirectory is a no-op: S3 has no real directories, only key prefixes.
func (s *Store) MakeDirectory(ctx context.Context, path string) error { return nil }

// RemoveDirectory is a no-op for the same reason.
func (s *Store) RemoveDirectory(ctx context.Context, path string) error { return nil }

func (s *Store) FileSize(ctx context.Context, path string) (uint64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return 0, err
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return uint64(*out.ContentLength), nil
}

func (s *Store) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

// CalculateChecksum streams the object through the checksum algorithm
// instead of buffering it, so large objects do not blow up memory.
func (s *Store) CalculateChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType) (uint32, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()

	switch checksumType {
	case cfdp.ChecksumNull:
		return 0, nil
	case cfdp.ChecksumCRC32C:
		h := crc32.New(crc32.MakeTable(crc32.Castagnoli))
		if _, err := io.Copy(h, out.Body); err != nil {
			return 0, err
		}
		return h.Sum32(), nil
	default:
		return streamModularChecksum(out.Body)
	}
}

func (s *Store) VerifyChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType, want uint32) (bool, error) {
	got, err := s.CalculateChecksum(ctx, path, checksumType)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

func (s *Store) readAll(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func isNoSuchKey(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}

// streamModularChecksum applies CFDP's legacy algorithm 0 while reading r
// incrementally rather than loading the whole object into memory.
func streamModularChecksum(r io.Reader) (uint32, error) {
	var sum uint32
	buf := make([]byte, 4096)
	var carry []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			i := 0
			for ; i+4 <= len(chunk); i += 4 {
				sum += uint32(chunk[i])<<24 | uint32(chunk[i+1])<<16 | uint32(chunk[i+2])<<8 | uint32(chunk[i+3])
			}
			carry = append([]byte(nil), chunk[i:]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if len(carry) > 0 {
		var word [4]byte
		copy(word[:], carry)
		sum += uint32(word[0])<<24 | uint32(word[1])<<16 | uint32(word[2])<<8 | uint32(word[3])
	}
	return sum, nil
}

var _ cfdp.Filestore = (*Store)(nil)
