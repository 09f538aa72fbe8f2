package filestore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/marmos91/cfdpgo"
)

// Restricted wraps another cfdp.Filestore and confines every path to a
// root directory, rejecting any path whose cleaned, root-relative form
// would escape it via "..". This is the guard a destination handler should
// sit behind whenever DestinationFilePath comes from a remote Metadata PDU.
type Restricted struct {
	inner cfdp.Filestore
	root  string
}

// NewRestricted returns a Filestore that rewrites every path as
// filepath.Join(root, path) and rejects any path that would resolve outside
// root.
func NewRestricted(inner cfdp.Filestore, root string) *Restricted {
	return &Restricted{inner: inner, root: filepath.Clean(root)}
}

// ErrPathEscapesRoot is returned when a path would resolve outside the
// restricted root.
type ErrPathEscapesRoot struct {
	Path string
	Root string
}

func (e *ErrPathEscapesRoot) Error() string {
	return fmt.Sprintf("path %q escapes restricted root %q", e.Path, e.Root)
}

func (r *Restricted) resolve(path string) (string, error) {
	joined := filepath.Join(r.root, path)
	cleanRoot := r.root + string(filepath.Separator)
	if joined != r.root && !strings.HasPrefix(joined, cleanRoot) {
		return "", &ErrPathEscapesRoot{Path: path, Root: r.root}
	}
	return joined, nil
}

func (r *Restricted) Open(ctx context.Context, path string, flag cfdp.OpenFlag) (cfdp.File, error) {
	p, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return r.inner.Open(ctx, p, flag)
}

func (r *Restricted) Create(ctx context.Context, path string) (cfdp.File, error) {
	p, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return r.inner.Create(ctx, p)
}

func (r *Restricted) Delete(ctx context.Context, path string) error {
	p, err := r.resolve(path)
	if err != nil {
		return err
	}
	return r.inner.Delete(ctx, p)
}

func (r *Restricted) Rename(ctx context.Context, oldPath, newPath string) error {
	o, err := r.resolve(oldPath)
	if err != nil {
		return err
	}
	n, err := r.resolve(newPath)
	if err != nil {
		return err
	}
	return r.inner.Rename(ctx, o, n)
}

func (r *Restricted) Append(ctx context.Context, path string) (cfdp.File, error) {
	p, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	return r.inner.Append(ctx, p)
}

func (r *Restricted) Replace(ctx context.Context, existingPath, replacementPath string) error {
	e, err := r.resolve(existingPath)
	if err != nil {
		return err
	}
	n, err := r.resolve(replacementPath)
	if err != nil {
		return err
	}
	return r.inner.Replace(ctx, e, n)
}

func (r *Restricted) MakeDirectory(ctx context.Context, path string) error {
	p, err := r.resolve(path)
	if err != nil {
		return err
	}
	return r.inner.MakeDirectory(ctx, p)
}

func (r *Restricted) RemoveDirectory(ctx context.Context, path string) error {
	p, err := r.resolve(path)
	if err != nil {
		return err
	}
	return r.inner.RemoveDirectory(ctx, p)
}

func (r *Restricted) FileSize(ctx context.Context, path string) (uint64, error) {
	p, err := r.resolve(path)
	if err != nil {
		return 0, err
	}
	return r.inner.FileSize(ctx, p)
}

func (r *Restricted) FileExists(ctx context.Context, path string) (bool, error) {
	p, err := r.resolve(path)
	if err != nil {
		return false, err
	}
	return r.inner.FileExists(ctx, p)
}

func (r *Restricted) CalculateChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType) (uint32, error) {
	p, err := r.resolve(path)
	if err != nil {
		return 0, err
	}
	return r.inner.CalculateChecksum(ctx, p, checksumType)
}

func (r *Restricted) VerifyChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType, want uint32) (bool, error) {
	p, err := r.resolve(path)
	if err != nil {
		return false, err
	}
	return r.inner.VerifyChecksum(ctx, p, checksumType, want)
}

var _ cfdp.Filestore = (*Restricted)(nil)
