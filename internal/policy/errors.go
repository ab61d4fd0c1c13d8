package policy

import (
	"errors"
	"fmt"
)

var (
	errEmptyUmask      = errors.New("umask is empty")
	errGroupNotFound   = errors.New("group not found")
	errInsecureFile    = errors.New("insecure policy file")
	errNotRegularFile  = errors.New("not a regular file")
	errUnexpectedOwner = errors.New("unexpected owner")
)

// Error is a single configuration problem.
type Error struct {
	Source string
	Field  string
	Msg    string
}

func (e Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Field, e.Msg)
}

// Errors collects every configuration problem found while loading a policy.
type Errors []Error

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "invalid policy"
	case 1:
		return e[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
	}
}
