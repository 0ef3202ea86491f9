package gdata

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const feedSchemaURL = "https://feedtree.invalid/schema/gdata-feed.json"

// Only the parts of the document that are decoded are constrained.
const feedSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["feed"],
  "properties": {
    "feed": {
      "type": "object",
      "properties": {
        "entry": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id"],
            "properties": {
              "id": { "$ref": "#/$defs/text" },
              "title": { "$ref": "#/$defs/text" },
              "media$group": {
                "type": "object",
                "properties": {
                  "media$content": {
                    "type": "array",
                    "items": {
                      "type": "object",
                      "properties": {
                        "url": { "type": "string" },
                        "type": { "type": "string" },
                        "width": { "type": ["string", "integer"] },
                        "height": { "type": ["string", "integer"] }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "text": {
      "type": "object",
      "required": ["$t"],
      "properties": { "$t": { "type": "string" } }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(feedSchema))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse feed schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(feedSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add feed schema: %w", err)
			return
		}

		compiledSchema, schemaErr = compiler.Compile(feedSchemaURL)
	})

	return compiledSchema, schemaErr
}

// validateFeed checks body against the feed document schema.
func validateFeed(body []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid feed document: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("unexpected feed document: %w", err)
	}

	return nil
}
