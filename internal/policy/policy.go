// Package policy builds the immutable ownership policy takeown applies to
// every file of a run.
package policy

import "fmt"

// Build-time defaults, set via:
//
//	-ldflags "-X github.com/yegor-usoltsev/takeown/internal/policy.Jail=/srv/data"
//
// File names an optional YAML policy file whose keys override these values.
// None of them can be changed by the invoking user.
var (
	Umask = "077" //nolint:gochecknoglobals
	GID   = ""    //nolint:gochecknoglobals
	Group = ""    //nolint:gochecknoglobals
	Jail  = ""    //nolint:gochecknoglobals
	File  = ""    //nolint:gochecknoglobals
)

const (
	DefaultGroupFile = "/etc/group"

	// NoGroup is the GID of a policy that leaves the group of created files alone.
	NoGroup = -1
)

// Policy is the OwnershipPolicy of a run. It is established once before any
// file is touched.
type Policy struct {
	UID   int
	GID   int
	Umask int
	Jail  string
}

// HasGroup reports whether created files are moved to a target group.
func (p Policy) HasGroup() bool { return p.GID != NoGroup }

// Jailed reports whether paths are confined to Jail.
func (p Policy) Jailed() bool { return p.Jail != "" }

func (p Policy) String() string {
	s := fmt.Sprintf("uid=%d umask=%04o", p.UID, p.Umask)
	if p.HasGroup() {
		s += fmt.Sprintf(" gid=%d", p.GID)
	}
	if p.Jailed() {
		s += " jail=" + p.Jail
	}
	return s
}

// Source holds the raw, unvalidated configuration values.
type Source struct {
	Umask string
	GID   string
	Group string
	Jail  string

	// File is an optional YAML policy file.
	File string
	// GroupFile is the group database used to resolve Group. Defaults to /etc/group.
	GroupFile string
}

// Defaults returns the build-time configuration.
func Defaults() Source {
	return Source{
		Umask:     Umask,
		GID:       GID,
		Group:     Group,
		Jail:      Jail,
		File:      File,
		GroupFile: DefaultGroupFile,
	}
}
