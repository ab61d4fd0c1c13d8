package policy

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// lookupGroup resolves a group name to its gid using a group(5) database.
func lookupGroup(groupFile, name string) (int, error) {
	f, err := os.Open(groupFile)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", groupFile, err)
	}
	defer func() { _ = f.Close() }()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 {
			continue
		}
		if parts[0] != name {
			continue
		}
		gid, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("parse gid for %s: %w", name, err)
		}
		return gid, nil
	}
	if err := s.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", groupFile, err)
	}
	return 0, fmt.Errorf("%w: %s", errGroupNotFound, name)
}
