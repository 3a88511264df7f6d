package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const poemRequestSchemaID = "inmemory://poem_request"

var poemRequestSchema = mustCompileSchema(poemRequestSchemaID, "schemas/poem_request.json")

func mustCompileSchema(id, name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewReader(data)); err != nil {
		panic(fmt.Errorf("add schema resource %s: %w", name, err))
	}
	schema, err := compiler.Compile(id)
	if err != nil {
		panic(fmt.Errorf("compile schema %s: %w", name, err))
	}
	return schema
}

// validatePoemRequest checks a raw JSON body against the request schema.
func validatePoemRequest(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return newInvalidRequest("malformed JSON body: " + err.Error())
	}
	if err := poemRequestSchema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return newInvalidRequest(describeValidation(verr))
		}
		return newInvalidRequest(err.Error())
	}
	return nil
}

// describeValidation reports the first leaf cause as "<location>: <message>".
func describeValidation(verr *jsonschema.ValidationError) string {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "request"
	}
	return loc + ": " + leaf.Message
}
