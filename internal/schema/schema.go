package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const PolicyV1URL = "https://takeown.usoltsev.xyz/policy.v1.json"

var errEmptySchema = errors.New("embedded schema is empty")

//go:embed policy.v1.json
var policyV1Bytes []byte

// PolicyV1 compiles the embedded policy file schema.
func PolicyV1() (*jsonschema.Schema, error) {
	b := bytes.TrimSpace(policyV1Bytes)
	if len(b) == 0 {
		return nil, errEmptySchema
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded schema json: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(PolicyV1URL, doc); err != nil {
		return nil, fmt.Errorf("add embedded schema resource: %w", err)
	}
	s, err := c.Compile(PolicyV1URL)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return s, nil
}
