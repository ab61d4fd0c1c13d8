// Package takeown hands the content of regular files over to the effective
// identity of the process.
//
// A file is taken over by renaming it to "<name>~", creating a fresh file at
// the original name, copying the content across and removing "<name>~". The
// steps are not atomic: a failure or interruption after the rename can leave
// the only copy of the content at "<name>~". Such artifacts are reported but
// never recovered automatically.
package takeown

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// TempSuffix is appended to a file name while its content is being copied.
const TempSuffix = "~"

const bufferSize = 4096

// Transferor takes ownership of files for one uid and optional gid.
type Transferor struct {
	uid int
	gid int

	copy func(dst io.Writer, src io.Reader) (int64, error)
}

// NewTransferor returns a Transferor creating files owned by uid. Created
// files are moved to gid unless gid is negative.
func NewTransferor(uid, gid int) *Transferor {
	return &Transferor{uid: uid, gid: gid, copy: copyContent}
}

// TempPath returns the name a file is renamed to during its transfer.
func TempPath(path string) string {
	return path + TempSuffix
}

// Take replaces the regular file at path with a byte-identical copy created
// by this process. path must already be validated by the caller.
func (t *Transferor) Take(path string) error {
	src, err := openRegular(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	tmp := TempPath(path)
	if err := os.Rename(path, tmp); err != nil {
		return &TransferError{Op: "rename", Path: path, Err: err}
	}

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return &TransferError{Op: "create", Path: path, Residual: tmp, Err: err}
	}
	defer func() { _ = dst.Close() }()

	if _, err := t.copy(dst, src); err != nil {
		return &TransferError{Op: "copy", Path: path, Residual: tmp, Err: err}
	}
	// The temporary copy is only removed once the new content is on disk.
	if err := dst.Sync(); err != nil {
		return &TransferError{Op: "sync", Path: path, Residual: tmp, Err: err}
	}

	if err := os.Remove(tmp); err != nil {
		return &TransferError{Op: "remove", Path: tmp, Residual: tmp, Err: err}
	}

	if t.gid >= 0 {
		if err := dst.Chown(t.uid, t.gid); err != nil {
			return &TransferError{Op: "chown", Path: path, Err: err}
		}
	}

	if err := dst.Close(); err != nil {
		return &TransferError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// openRegular opens path for reading without following a final symlink and
// without blocking on FIFOs, then checks the descriptor is a regular file.
func openRegular(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NOFOLLOW|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ELOOP) {
			return nil, &TransferError{Op: "check", Path: path, Err: ErrNotRegular}
		}
		return nil, &TransferError{Op: "open", Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &TransferError{Op: "stat", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, &TransferError{Op: "check", Path: path, Err: ErrNotRegular}
	}
	return f, nil
}

// copyContent streams src into dst through a fixed-size buffer.
func copyContent(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, bufferSize)
	var n int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			n += int64(nw)
			if werr != nil {
				return n, werr
			}
			if nw != nr {
				return n, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return n, nil
		}
		if rerr != nil {
			return n, rerr
		}
	}
}
