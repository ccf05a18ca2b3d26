package devicefile

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "devices.schema.json"

// documentSchema constrains the document shape. Numeric range checks on
// the decoded values are repeated by core.ValidateDefinition.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["devices"],
  "additionalProperties": false,
  "properties": {
    "devices": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "power"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "aliases": {
            "type": "array",
            "items": {"type": "string", "minLength": 1}
          },
          "power": {
            "oneOf": [
              {"type": "number", "minimum": 0},
              {"type": "string", "pattern": "^\\s*[0-9.]+([eE][-+]?[0-9]+)?\\s?[kMGTPE]?\\s*$"}
            ]
          },
          "combinability_exponent": {"type": "number", "minimum": 0, "maximum": 1},
          "class": {"enum": ["direct", "relay", "dsn"]}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// validateSchema checks a generically decoded YAML value. The value is
// round-tripped through JSON so the validator sees JSON types.
func validateSchema(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
