// Package jail confines caller-supplied paths to a directory subtree.
package jail

import (
	"fmt"
	"strings"
)

// Resolver turns raw command line paths into absolute paths inside a jail.
//
// The working directory is looked up on first use and cached for the
// lifetime of the Resolver. A Resolver is not safe for concurrent use.
type Resolver struct {
	jail  string
	getwd func() (string, error)

	cwd     string
	cwdErr  error
	cwdDone bool
}

// NewResolver returns a Resolver for jail, which must be absolute and have no
// trailing separator. getwd is usually os.Getwd.
func NewResolver(jail string, getwd func() (string, error)) *Resolver {
	return &Resolver{jail: jail, getwd: getwd}
}

// Resolve validates raw and returns the absolute path it names. The returned
// path either has the jail followed by a separator as a prefix or the
// resolution fails.
func (r *Resolver) Resolve(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyPath
	}
	cwd, err := r.workingDir()
	if err != nil {
		return "", err
	}
	if ContainsTwoDots(raw) {
		return "", fmt.Errorf("%s: %w", raw, ErrTwoDots)
	}
	if ContainsTwoDots(cwd) {
		return "", fmt.Errorf("%w: %s", ErrCwdTwoDots, cwd)
	}

	if raw[0] == sep {
		n := commonPrefixLen(raw, r.jail)
		if n == len(r.jail) && n < len(raw) && raw[n] == sep {
			return raw, nil
		}
		return "", fmt.Errorf("%s: %w (%s)", raw, ErrOutsideJail, r.jail)
	}

	if !strings.HasPrefix(cwd, string(sep)) {
		return "", fmt.Errorf("%w: %s", ErrCwdNotAbsolute, cwd)
	}
	n := commonPrefixLen(cwd, r.jail)
	if n == len(r.jail) {
		if n == len(cwd) {
			return r.jail + string(sep) + raw, nil
		}
		if cwd[n] == sep {
			return r.jail + cwd[n:] + string(sep) + raw, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrCwdOutsideJail, cwd, r.jail)
}

func (r *Resolver) workingDir() (string, error) {
	if !r.cwdDone {
		r.cwd, r.cwdErr = r.getwd()
		if r.cwdErr != nil {
			r.cwdErr = fmt.Errorf("%w: %w", ErrNoWorkingDir, r.cwdErr)
		}
		r.cwdDone = true
	}
	return r.cwd, r.cwdErr
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
