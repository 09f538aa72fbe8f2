package cfdp

import "context"

// Filestore is the virtual filestore capability both handlers use for all
// local file access. Implementations translate these operations onto a
// real backend (a native directory tree, an S3 bucket, an in-memory map for
// tests) and report failures as *FilestoreError so the handlers can drive
// the FILESTORE_REJECTION fault without caring what went wrong underneath.
//
// Paths are opaque strings scoped by the implementation; the core never
// inspects or normalizes them beyond what is needed to pass them through.
type Filestore interface {
	// Open opens path for the given mode. Callers close the returned file
	// when done.
	Open(ctx context.Context, path string, flag OpenFlag) (File, error)

	// Create creates path, truncating it if it already exists, and returns
	// it opened for writing.
	Create(ctx context.Context, path string) (File, error)

	// Delete removes path. It is an error if path does not exist.
	Delete(ctx context.Context, path string) error

	// Rename moves oldPath to newPath. It is an error if oldPath does not
	// exist or newPath already exists.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Append opens path for appending, creating it if it does not exist.
	Append(ctx context.Context, path string) (File, error)

	// Replace truncates existingPath and copies the content of
	// replacementPath into it.
	Replace(ctx context.Context, existingPath, replacementPath string) error

	// MakeDirectory creates path as a directory, including any missing
	// parents.
	MakeDirectory(ctx context.Context, path string) error

	// RemoveDirectory removes the empty directory at path.
	RemoveDirectory(ctx context.Context, path string) error

	// FileSize returns the size in bytes of the file at path.
	FileSize(ctx context.Context, path string) (uint64, error)

	// FileExists reports whether path names an existing file.
	FileExists(ctx context.Context, path string) (bool, error)

	// CalculateChecksum computes the checksum of path's content using the
	// given algorithm.
	CalculateChecksum(ctx context.Context, path string, checksumType ChecksumType) (uint32, error)

	// VerifyChecksum reports whether path's content matches want under the
	// given algorithm.
	VerifyChecksum(ctx context.Context, path string, checksumType ChecksumType, want uint32) (bool, error)
}

// OpenFlag selects the access mode for Filestore.Open.
type OpenFlag int

const (
	OpenReadOnly OpenFlag = iota
	OpenWriteOnly
	OpenReadWrite
)

// File is a handle returned by a Filestore open/create/append call. The
// destination handler seeks to the offset named by each File Data PDU
// before writing, since segments can arrive out of order.
type File interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Close() error
}

// FilestoreErrorOp names the Filestore operation that failed, for the
// FilestoreRequest/FilestoreResponse reporting the core does after applying
// a Metadata PDU's filestore-request list.
type FilestoreErrorOp int

const (
	FilestoreOpOpen FilestoreErrorOp = iota
	FilestoreOpCreate
	FilestoreOpDelete
	FilestoreOpRename
	FilestoreOpAppend
	FilestoreOpReplace
	FilestoreOpMakeDirectory
	FilestoreOpRemoveDirectory
	FilestoreOpFileSize
	FilestoreOpChecksum
)

// FilestoreError reports a failed Filestore operation. Handlers treat any
// non-nil error from a Filestore call as a filestore rejection and drive
// the FilestoreRejection condition code / fault handler policy, regardless
// of whether it is a *FilestoreError or some other error type; the typed
// form is provided so implementations can carry a path and operation for
// logging and filestore-response messages.
type FilestoreError struct {
	Op   FilestoreErrorOp
	Path string
	Err  error
}

func (e *FilestoreError) Error() string {
	return "filestore: " + e.Op.String() + " " + e.Path + ": " + e.Err.Error()
}

func (e *FilestoreError) Unwrap() error { return e.Err }

func (op FilestoreErrorOp) String() string {
	switch op {
	case FilestoreOpOpen:
		return "open"
	case FilestoreOpCreate:
		return "create"
	case FilestoreOpDelete:
		return "delete"
	case FilestoreOpRename:
		return "rename"
	case FilestoreOpAppend:
		return "append"
	case FilestoreOpReplace:
		return "replace"
	case FilestoreOpMakeDirectory:
		return "mkdir"
	case FilestoreOpRemoveDirectory:
		return "rmdir"
	case FilestoreOpFileSize:
		return "file_size"
	case FilestoreOpChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}
