package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tjfontaine/feedlot-portal/internal/core/domain"
)

const submitSchemaURL = "https://feedlot-portal.local/schemas/submit.schema.json"

// submitSchema checks the shape of a submission body. Semantic checks (known
// role, permitted event type) belong to the pipeline.
const submitSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "role": {"type": ["string", "null"]},
    "pin": {"type": ["string", "number", "null"]},
    "tag": {"type": ["string", "null"]},
    "eventType": {"type": ["string", "null"]},
    "payload": {}
  }
}`

var compiledSubmitSchema = mustCompileSchema(submitSchemaURL, submitSchema)

func mustCompileSchema(url, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("load schema %s: %v", url, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return compiled
}

func validateSubmitBody(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return domain.ErrValidation("request body is not valid JSON")
	}
	if dec.More() {
		return domain.ErrValidation("request body must be a single JSON object")
	}

	if err := compiledSubmitSchema.Validate(v); err != nil {
		e := domain.ErrValidation(fmt.Sprintf("invalid request body: %v", err))
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			if field := schemaField(verr); field != "" {
				e = e.WithField(field)
			}
		}
		return e
	}
	return nil
}

// schemaField returns the first offending property named by a validation error.
func schemaField(err *jsonschema.ValidationError) string {
	for err != nil {
		if loc := strings.TrimPrefix(err.InstanceLocation, "/"); loc != "" {
			return loc
		}
		if len(err.Causes) == 0 {
			return ""
		}
		err = err.Causes[0]
	}
	return ""
}
