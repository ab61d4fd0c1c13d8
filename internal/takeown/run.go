package takeown

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sys/unix"
)

// Resolver validates a raw command line path and returns the path to work on.
type Resolver interface {
	Resolve(raw string) (string, error)
}

// Options configures a batch. The zero value is not usable: a GID of 0 moves
// every file to group root. Set GID to -1 (policy.NoGroup) to leave the group
// of created files alone.
type Options struct {
	UID   int
	GID   int
	Umask int

	// Resolver confines paths to a jail. When nil, paths are used as given.
	Resolver Resolver
}

// Summary is the aggregate result of a batch.
type Summary struct {
	Succeeded int
	Failed    Failures
}

// Err returns the failures of the batch, or nil when every file succeeded.
func (s Summary) Err() error {
	if len(s.Failed) == 0 {
		return nil
	}
	return s.Failed
}

// umaskMu serializes batches: the umask is process-wide.
var umaskMu sync.Mutex //nolint:gochecknoglobals

// Run takes ownership of paths one after another, in order. A file that is
// rejected or fails is logged and skipped; the batch always continues.
// The umask is set for the duration of the batch and restored afterwards.
func Run(ctx context.Context, paths []string, opts Options) Summary {
	umaskMu.Lock()
	defer umaskMu.Unlock()
	old := unix.Umask(opts.Umask)
	defer unix.Umask(old)

	t := NewTransferor(opts.UID, opts.GID)
	var sum Summary
	for _, raw := range paths {
		if err := ctx.Err(); err != nil {
			sum.Failed = append(sum.Failed, Failure{Path: raw, Err: fmt.Errorf("not started: %w", err)})
			continue
		}
		path := raw
		if opts.Resolver != nil {
			resolved, err := opts.Resolver.Resolve(raw)
			if err != nil {
				log.Printf("skip %s: %v", raw, err)
				sum.Failed = append(sum.Failed, Failure{Path: raw, Err: err})
				continue
			}
			path = resolved
		}
		if err := t.Take(path); err != nil {
			log.Printf("skip %s: %v", raw, err)
			sum.Failed = append(sum.Failed, Failure{Path: raw, Err: err})
			continue
		}
		sum.Succeeded++
	}
	return sum
}
