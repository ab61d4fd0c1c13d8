package jail

import "errors"

var (
	ErrEmptyPath      = errors.New("empty path")
	ErrTwoDots        = errors.New("path contains a .. component")
	ErrCwdTwoDots     = errors.New("current working directory contains a .. component")
	ErrOutsideJail    = errors.New("not inside the jail")
	ErrCwdNotAbsolute = errors.New("current working directory is not an absolute path")
	ErrCwdOutsideJail = errors.New("current working directory is outside the jail")
	ErrNoWorkingDir   = errors.New("cannot determine current working directory")
)
