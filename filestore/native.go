package filestore

import (
	"context"
	"io"
	"os"

	"github.com/marmos91/cfdpgo"
)

// Native is a cfdp.Filestore backed directly by the host filesystem. Paths
// are passed through to os.* unmodified; wrap with Restricted to confine
// them to a root directory.
type Native struct{}

// NewNative returns a Filestore backed by the host filesystem.
func NewNative() Native { return Native{} }

func toOSFlag(flag cfdp.OpenFlag) int {
	switch flag {
	case cfdp.OpenWriteOnly:
		return os.O_WRONLY
	case cfdp.OpenReadWrite:
		return os.O_RDWR
	default:
		return os.O_RDONLY
	}
}

func (Native) Open(ctx context.Context, path string, flag cfdp.OpenFlag) (cfdp.File, error) {
	return os.OpenFile(path, toOSFlag(flag), 0)
}

func (Native) Create(ctx context.Context, path string) (cfdp.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
}

func (Native) Delete(ctx context.Context, path string) error {
	return os.Remove(path)
}

func (Native) Rename(ctx context.Context, oldPath, newPath string) error {
	if _, err := os.Stat(newPath); err == nil {
		return os.ErrExist
	}
	return os.Rename(oldPath, newPath)
}

func (Native) Append(ctx context.Context, path string) (cfdp.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
}

func (Native) Replace(ctx context.Context, existingPath, replacementPath string) error {
	src, err := os.Open(replacementPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(existingPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (Native) MakeDirectory(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (Native) RemoveDirectory(ctx context.Context, path string) error {
	return os.Remove(path)
}

func (Native) FileSize(ctx context.Context, path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(fi.Size()), nil
}

func (Native) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (n Native) CalculateChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType) (uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return computeChecksum(b, checksumType), nil
}

func (n Native) VerifyChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType, want uint32) (bool, error) {
	got, err := n.CalculateChecksum(ctx, path, checksumType)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

var _ cfdp.Filestore = Native{}
