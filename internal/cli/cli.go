package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/yegor-usoltsev/takeown/internal/jail"
	"github.com/yegor-usoltsev/takeown/internal/policy"
	"github.com/yegor-usoltsev/takeown/internal/takeown"
	"github.com/yegor-usoltsev/takeown/internal/version"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errNoFiles = errors.New("expected at least one file")

// The first file argument ends option parsing, so later arguments starting
// with "-" are file names.
type root struct {
	Version kong.VersionFlag `name:"version" help:"Print version and exit."`
	Files   []string         `arg:"" name:"file" passthrough:"partial" help:"Regular files to take ownership of."`
}

// Run parses args, loads the policy and takes ownership of every file named.
// It returns the process exit status.
func Run(args []string) int {
	ctx := context.Background()

	// A broken policy must not hide usage errors or --help, so it is only
	// reported once the arguments are known to be well formed.
	p, perr := policy.Load(ctx, policy.Defaults(), os.Geteuid())

	var cli root
	k, err := kong.New(
		&cli,
		kong.Name("takeown"),
		kong.Description(description(p)),
		kong.UsageOnError(),
		kong.Writers(os.Stdout, os.Stderr),
		kong.Vars{"version": version.Version},
	)
	if err != nil {
		log.Printf("init cli: %v", err)
		return exitFailure
	}

	kctx, err := k.Parse(args)
	if err != nil {
		log.Printf("parse args: %v", err)
		return exitUsage
	}
	files := fileArgs(cli.Files)
	if len(files) == 0 {
		_ = kctx.PrintUsage(false)
		log.Printf("parse args: %v", errNoFiles)
		return exitUsage
	}

	if perr != nil {
		var perrs policy.Errors
		if errors.As(perr, &perrs) {
			for _, e := range perrs {
				log.Printf("policy: %s", e)
			}
			return exitFailure
		}
		log.Printf("load policy: %v", perr)
		return exitFailure
	}

	return execute(ctx, files, p)
}

// fileArgs drops the "--" that ends option parsing; the passthrough
// argument keeps it.
func fileArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

func description(p policy.Policy) string {
	s := "Take ownership of the given files."
	if p.Jailed() {
		s += fmt.Sprintf("\n\nUsage is restricted to files within %s.", p.Jail)
	}
	return s
}

func execute(ctx context.Context, files []string, p policy.Policy) int {
	opts := takeown.Options{UID: p.UID, GID: p.GID, Umask: p.Umask}
	if p.Jailed() {
		opts.Resolver = jail.NewResolver(p.Jail, os.Getwd)
	}

	sum := takeown.Run(ctx, files, opts)
	if sum.Err() != nil {
		log.Printf("took ownership of %d of %d files", sum.Succeeded, len(files))
		return exitFailure
	}
	return exitOK
}
