package s3store

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
)

// fakeS3 is a minimal in-memory S3-compatible REST server, just enough of
// PutObject/GetObject/HeadObject/DeleteObject/CopyObject for Store's own
// calls to round-trip against.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3(t *testing.T) (*httptest.Server, *fakeS3) {
	t.Helper()
	f := &fakeS3{objects: make(map[string][]byte)}
	server := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(server.Close)
	return server, f
}

func (f *fakeS3) handle(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	// path-style requests are "/bucket/key..."; strip the bucket segment.
	if idx := strings.Index(key, "/"); idx >= 0 {
		key = key[idx+1:]
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPut && r.Header.Get("X-Amz-Copy-Source") != "":
		src := strings.TrimPrefix(r.Header.Get("X-Amz-Copy-Source"), "/")
		if idx := strings.Index(src, "/"); idx >= 0 {
			src = src[idx+1:]
		}
		body, ok := f.objects[src]
		if !ok {
			writeNoSuchKey(w)
			return
		}
		f.objects[key] = append([]byte(nil), body...)
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><CopyObjectResult></CopyObjectResult>`)

	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			writeNoSuchKey(w)
			return
		}
		if rng := r.Header.Get("Range"); rng != "" {
			start, end, ok := parseRange(rng, len(body))
			if !ok {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>InvalidRange</Code><Message>range</Message></Error>`)
				return
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(body)))
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(body[start : end+1])
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)

	case r.Method == http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeNoSuchKey(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`)
}

func parseRange(header string, size int) (int, int, bool) {
	header = strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(header, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	server, fake := newFakeS3(t)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		UsePathStyle: true,
		BaseEndpoint: aws.String(server.URL),
	})
	return New(client, "test-bucket", "cfdp"), fake
}

func TestStore_CreateThenWriteAtThenClosePutsObject(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)

	f, err := store.Create(ctx, "/dir/f.bin")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fake.mu.Lock()
	got := fake.objects["cfdp/dir/f.bin"]
	fake.mu.Unlock()
	assert.Equal(t, "hello", string(got))
}

func TestStore_OpenReadAtHonorsRange(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/f.bin"] = []byte("hello world")

	f, err := store.Open(ctx, "/f.bin", cfdp.OpenReadOnly)
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err := f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))
}

func TestStore_FileExistsAndFileSize(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/f.bin"] = []byte("12345")

	exists, err := store.FileExists(ctx, "/f.bin")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := store.FileSize(ctx, "/f.bin")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)

	exists, err = store.FileExists(ctx, "/missing.bin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_DeleteRemovesObject(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/f.bin"] = []byte("x")

	require.NoError(t, store.Delete(ctx, "/f.bin"))

	fake.mu.Lock()
	_, ok := fake.objects["cfdp/f.bin"]
	fake.mu.Unlock()
	assert.False(t, ok)
}

func TestStore_RenameCopiesThenDeletesSource(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/old.bin"] = []byte("payload")

	require.NoError(t, store.Rename(ctx, "/old.bin", "/new.bin"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "payload", string(fake.objects["cfdp/new.bin"]))
	_, stillThere := fake.objects["cfdp/old.bin"]
	assert.False(t, stillThere)
}

func TestStore_AppendLoadsExistingContent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/f.bin"] = []byte("abc")

	f, err := store.Append(ctx, "/f.bin")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("d"), 3)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	fake.mu.Lock()
	got := fake.objects["cfdp/f.bin"]
	fake.mu.Unlock()
	assert.Equal(t, "abcd", string(got))
}

func TestStore_ChecksumCRC32C(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store, fake := newTestStore(t)
	fake.objects["cfdp/f.bin"] = []byte("payload")

	sum, err := store.CalculateChecksum(ctx, "/f.bin", cfdp.ChecksumCRC32C)
	require.NoError(t, err)

	ok, err := store.VerifyChecksum(ctx, "/f.bin", cfdp.ChecksumCRC32C, sum)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_KeyPrefixing(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore(t)

	assert.Equal(t, "cfdp/a/b.bin", store.key("/a/b.bin"))

	unprefixed := New(nil, "bucket", "")
	assert.Equal(t, "a/b.bin", unprefixed.key("/a/b.bin"))
}

func TestIsRetryableError(t *testing.T) {
	t.Parallel()
	assert.False(t, isRetryableError(nil))
}
