package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/yegor-usoltsev/takeown/internal/schema"
	"golang.org/x/sys/unix"

	"gopkg.in/yaml.v3"
)

// fileSpec is the on-disk policy file structure. Omitted keys keep the
// build-time value.
type fileSpec struct {
	Schema string  `yaml:"$schema,omitempty"`
	Umask  *string `yaml:"umask"`
	GID    *int    `yaml:"gid"`
	Group  *string `yaml:"group"`
	Jail   *string `yaml:"jail"`
}

func (f fileSpec) apply(src Source) Source {
	if f.Umask != nil {
		src.Umask = *f.Umask
	}
	if f.GID != nil || f.Group != nil {
		src.GID, src.Group = "", ""
		if f.GID != nil {
			src.GID = fmt.Sprint(*f.GID)
		}
		if f.Group != nil {
			src.Group = *f.Group
		}
	}
	if f.Jail != nil {
		src.Jail = *f.Jail
	}
	return src
}

func loadFile(path string, euid int) (fileSpec, error) {
	raw, err := readTrustedFile(path, euid)
	if err != nil {
		return fileSpec{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fileSpec{}, Errors{{Source: path, Msg: "empty policy file"}}
	}

	s, err := schema.PolicyV1()
	if err != nil {
		return fileSpec{}, fmt.Errorf("load schema: %w", err)
	}
	if err := validateSchema(s, raw); err != nil {
		return fileSpec{}, Errors{{Source: path, Msg: "JSON schema validation failed: " + err.Error()}}
	}

	var spec fileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return fileSpec{}, Errors{{Source: path, Msg: "parse yaml: " + err.Error()}}
	}
	return spec, nil
}

// readTrustedFile reads a policy file only if the invoking user could not
// have written it: it must be a regular file owned by root or euid and not
// writable by group or others.
func readTrustedFile(path string, euid int) ([]byte, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, fmt.Errorf("%s: %w", path, errNotRegularFile)
	}
	if st.Uid != 0 && int(st.Uid) != euid {
		return nil, fmt.Errorf("%s: %w: uid %d", path, errUnexpectedOwner, st.Uid)
	}
	if st.Mode&0o022 != 0 {
		return nil, fmt.Errorf("%s: %w: mode %04o is writable by group or others", path, errInsecureFile, st.Mode&0o7777)
	}

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func validateSchema(s *jsonschema.Schema, yamlBytes []byte) error {
	var yamlDoc any
	if err := yaml.Unmarshal(yamlBytes, &yamlDoc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	jsonBytes, err := json.Marshal(yamlDoc)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := s.Validate(jsonDoc); err != nil {
		return schemaError{msg: formatSchemaErr(err)}
	}
	return nil
}

type schemaError struct{ msg string }

func (e schemaError) Error() string { return e.msg }

func formatSchemaErr(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		b, mErr := json.Marshal(ve.BasicOutput())
		if mErr != nil {
			return "schema: " + err.Error()
		}
		return "schema: " + string(b)
	}
	return "schema: " + err.Error()
}
