package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// fieldsSchemaJSON is the shape every completion must match: an object with
// exactly the two string fields "store" and "total".
const fieldsSchemaJSON = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"store": {"type": "string"},
		"total": {"type": "string"}
	},
	"required": ["store", "total"]
}`

// Compiled once; DecodeCompletion validates every reply against it.
var fieldsSchema = jsonschema.MustCompileString("fields.json", fieldsSchemaJSON)

// ValidateFields checks that raw is a JSON object carrying exactly the
// expected receipt fields.
func ValidateFields(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("completion is not valid json: %w", err)
	}
	if err := fieldsSchema.Validate(v); err != nil {
		return fmt.Errorf("completion does not match receipt fields shape: %w", err)
	}
	return nil
}
