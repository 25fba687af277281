package todo

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/todone/todone/internal/utils"
)

// listSchema describes the JSON array returned by GET /list/. The server
// is the validation authority for writes; this schema only guards the
// client against decoding a malformed collection when strict response
// checking is enabled.
const listSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["description", "timestamp"],
    "properties": {
      "id": {"type": "integer"},
      "title": {"type": ["string", "null"]},
      "description": {"type": "string"},
      "timestamp": {"type": "string"},
      "done": {"type": ["boolean", "null"]},
      "filename": {"type": ["string", "null"]},
      "document": {
        "type": ["object", "null"],
        "properties": {
          "filename": {"type": "string"},
          "contents": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("todos.schema.json", strings.NewReader(listSchema)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("todos.schema.json")
	})
	return compiled, compileErr
}

// ValidateList checks a raw /list/ response body against the collection
// schema. It returns nil for conforming payloads and a single flattened
// error otherwise.
func ValidateList(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse list response: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		msgs := collectLeafErrors(ve, nil)
		return fmt.Errorf("list response does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func collectLeafErrors(err *jsonschema.ValidationError, msgs []string) []string {
	if err == nil {
		return msgs
	}
	if len(err.Causes) == 0 {
		loc := utils.JSONPointerToPath(err.InstanceLocation)
		if loc == "" {
			loc = "(root)"
		}
		return append(msgs, fmt.Sprintf("%s: %s", loc, err.Message))
	}
	for _, cause := range err.Causes {
		msgs = collectLeafErrors(cause, msgs)
	}
	return msgs
}
