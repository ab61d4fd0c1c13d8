package policy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yegor-usoltsev/takeown/internal/jail"
)

const buildSource = "build"

// Load validates src and returns the policy for a process whose effective
// uid is uid. All problems are reported together as Errors.
func Load(ctx context.Context, src Source, uid int) (Policy, error) {
	if err := ctx.Err(); err != nil {
		return Policy{}, fmt.Errorf("load policy: %w", err)
	}

	origin := buildSource
	if src.File != "" {
		spec, err := loadFile(src.File, uid)
		if err != nil {
			return Policy{}, fmt.Errorf("policy file: %w", err)
		}
		src = spec.apply(src)
		origin = src.File
	}
	if src.GroupFile == "" {
		src.GroupFile = DefaultGroupFile
	}

	p := Policy{UID: uid, GID: NoGroup}
	var errs Errors

	umask, err := parseUmask(src.Umask)
	if err != nil {
		errs = append(errs, Error{Source: origin, Field: "umask", Msg: err.Error()})
	}
	p.Umask = umask

	switch {
	case strings.TrimSpace(src.GID) != "":
		gid, err := strconv.Atoi(strings.TrimSpace(src.GID))
		if err != nil || gid < 0 {
			errs = append(errs, Error{Source: origin, Field: "gid", Msg: fmt.Sprintf("expected a non-negative integer, got %q", src.GID)})
			break
		}
		p.GID = gid
	case strings.TrimSpace(src.Group) != "":
		gid, err := lookupGroup(src.GroupFile, strings.TrimSpace(src.Group))
		if err != nil {
			errs = append(errs, Error{Source: origin, Field: "group", Msg: err.Error()})
			break
		}
		p.GID = gid
	}

	if src.Jail != "" {
		if msg := checkJail(src.Jail); msg != "" {
			errs = append(errs, Error{Source: origin, Field: "jail", Msg: msg})
		} else {
			p.Jail = src.Jail
		}
	}

	if len(errs) > 0 {
		return Policy{}, errs
	}
	return p, nil
}

func parseUmask(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyUmask
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("expected an octal mask, got %q", s)
	}
	if v > 0o777 {
		return 0, fmt.Errorf("mask %q out of range 0-0777", s)
	}
	return int(v), nil
}

func checkJail(dir string) string {
	switch {
	case dir == "/":
		return "must not be the filesystem root, leave it unset instead"
	case !strings.HasPrefix(dir, "/"):
		return fmt.Sprintf("must be an absolute path, got %q", dir)
	case strings.HasSuffix(dir, "/"):
		return fmt.Sprintf("must not end with a separator, got %q", dir)
	case jail.ContainsTwoDots(dir):
		return fmt.Sprintf("must not contain a .. component, got %q", dir)
	}
	return ""
}
