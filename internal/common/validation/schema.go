package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ApplicationSchema describes the create-application body the backend accepts.
const ApplicationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "fullName", "phoneNumber", "dateOfBirth", "icNumber", "nationality", "gender",
    "address", "householdIncome", "university", "major", "yearOfStudy", "cgpa",
    "expectedGraduation", "qualification", "familyMembers", "activities",
    "transcript", "payslip", "ic"
  ],
  "properties": {
    "scholarshipId": {"type": "string"},
    "fullName": {"type": "string", "minLength": 1},
    "phoneNumber": {"type": "string", "pattern": "^[0-9+\\-\\s()]{10,}$"},
    "dateOfBirth": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "icNumber": {"type": "string", "pattern": "^[0-9-]{12,14}$"},
    "nationality": {"type": "string", "minLength": 1},
    "bumiputeraStatus": {"type": "boolean"},
    "gender": {"type": "string", "minLength": 1},
    "address": {"type": "string", "minLength": 1},
    "householdIncome": {"type": "number", "minimum": 0},
    "university": {"type": "string", "minLength": 1},
    "major": {"type": "string", "minLength": 1},
    "yearOfStudy": {"type": "string", "minLength": 1},
    "cgpa": {"type": "number", "minimum": 2.0, "maximum": 4.0},
    "expectedGraduation": {"type": "string", "minLength": 1},
    "qualification": {"type": "string", "minLength": 1},
    "familyMembers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "relationship": {"type": "string"},
          "age": {"type": "integer", "minimum": 0},
          "occupation": {"type": "string"},
          "monthlyIncome": {"type": "number", "minimum": 0}
        }
      }
    },
    "activities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["activity", "role"],
        "properties": {
          "activity": {"type": "string", "minLength": 1},
          "role": {"type": "string", "minLength": 1}
        }
      }
    },
    "transcript": {"$ref": "#/definitions/uploadedFile"},
    "payslip": {"$ref": "#/definitions/uploadedFile"},
    "ic": {"$ref": "#/definitions/uploadedFile"}
  },
  "definitions": {
    "uploadedFile": {
      "type": "object",
      "required": ["fileName", "fileUrl"],
      "properties": {
        "fileName": {"type": "string", "minLength": 1},
        "fileUrl": {"type": "string", "minLength": 1},
        "originalName": {"type": "string"},
        "size": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var applicationSchema = gojsonschema.NewStringLoader(ApplicationSchema)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateApplication checks a create-application payload (struct or map) against ApplicationSchema.
func ValidateApplication(payload interface{}) (*ValidationResult, error) {
	return validate(applicationSchema, gojsonschema.NewGoLoader(payload))
}

// ValidateDocument checks any document against a caller supplied schema.
func ValidateDocument(schemaJSON string, document interface{}) (*ValidationResult, error) {
	return validate(gojsonschema.NewStringLoader(schemaJSON), gojsonschema.NewGoLoader(document))
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
