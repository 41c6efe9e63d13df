package catalog

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"workflow-chat/internal/models"
)

// ValidateParameters checks a trigger parameter payload against a workflow's
// parameter definitions before anything is launched. A workflow without
// declared parameters accepts any payload.
func ValidateParameters(wf *models.WorkflowDetail, params map[string]interface{}) error {
	if wf == nil || len(wf.Parameters) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(SchemaFromParameters(wf.Parameters))
	if params == nil {
		params = map[string]interface{}{}
	}
	documentLoader := gojsonschema.NewGoLoader(params)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(errs, "; "))
	}
	return nil
}

// SchemaFromParameters builds the JSON schema equivalent of a workflow's
// declared parameters. Parameter types follow the parser's type names; the
// ones that are not JSON primitives map onto string with a format hint.
func SchemaFromParameters(params []models.WorkflowParameter) map[string]interface{} {
	properties := make(map[string]interface{}, len(params))
	var required []string

	for _, p := range params {
		prop := map[string]interface{}{}
		switch p.Type {
		case "number":
			prop["type"] = "number"
		case "boolean":
			prop["type"] = "boolean"
		case "json_object":
			prop["type"] = "object"
		case "array":
			prop["type"] = "array"
		case "email":
			prop["type"] = "string"
			prop["format"] = "email"
		case "url":
			prop["type"] = "string"
			prop["format"] = "uri"
		case "date":
			prop["type"] = "string"
			prop["format"] = "date"
		default:
			prop["type"] = "string"
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
