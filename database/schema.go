package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const taskListSchemaURL = "taskweb://tasks.schema.json"

const taskListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title"],
    "properties": {
      "id": {"type": "integer", "minimum": 0},
      "title": {"type": "string"},
      "description": {"type": "string"},
      "priority": {"type": "string"},
      "status": {"type": "string"},
      "created_at": {"type": "string"},
      "updated_at": {"type": "string"}
    }
  }
}`

var compiledTaskListSchema = jsonschema.MustCompileString(taskListSchemaURL, taskListSchema)

// validateDocument checks raw file contents against the task list schema.
func validateDocument(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("malformed JSON: trailing data after task list")
	}

	if err := compiledTaskListSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("invalid task list: %s", strings.Join(schemaMessages(ve), "; "))
		}
		return err
	}
	return nil
}

func schemaMessages(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, err.Message)}
	}

	var out []string
	for _, cause := range err.Causes {
		out = append(out, schemaMessages(cause)...)
	}
	return out
}
