package takeown

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotRegular is returned for directories, symlinks, devices, FIFOs and
// sockets. Their ownership is never taken.
var ErrNotRegular = errors.New("not a regular file")

// TransferError reports a failed filesystem step. Residual names the
// temporary copy left behind when the failure happened after the original
// was renamed aside; it is never recovered automatically.
type TransferError struct {
	Op       string
	Path     string
	Residual string
	Err      error
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause(e.Err))
	if e.Residual != "" {
		msg += " (content left at " + e.Residual + ")"
	}
	return msg
}

func (e *TransferError) Unwrap() error { return e.Err }

// cause strips the op and path os errors already carry, since TransferError
// prints its own.
func cause(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Err
	}
	return err
}

// Failure is a file that was skipped.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Failures lists every skipped file of a batch, in argument order.
type Failures []Failure

func (f Failures) Error() string {
	switch len(f) {
	case 0:
		return "no files skipped"
	case 1:
		return f[0].Error()
	default:
		names := make([]string, 0, len(f))
		for _, e := range f {
			names = append(names, e.Path)
		}
		return fmt.Sprintf("%d files skipped: %s", len(f), strings.Join(names, ", "))
	}
}
