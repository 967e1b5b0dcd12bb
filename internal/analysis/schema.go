package analysis

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// profileSchema is the strict shape requested from the model. Every field is
// optional here; missing fields get defensive defaults during mapping. The
// schema guards against wrong types, not against omissions.
const profileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "candidate_name":   {"type": "string"},
    "experience_years": {"type": "number", "minimum": 0},
    "experience_level": {"type": "string"},
    "skills":           {"type": "array", "items": {"type": "string"}},
    "overall_score":    {"type": "number"},
    "fit_assessment":   {"type": "string"},
    "strengths":        {"type": "array", "items": {"type": "string"}},
    "recommendations":  {"type": "array", "items": {"type": "string"}},
    "summary":          {"type": "string"},
    "confidence":       {"type": "number"}
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(profileSchema)

// validateProfileJSON checks a candidate JSON document against the profile
// schema. A nil return means every present field has the expected type.
func validateProfileJSON(doc string) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("profile does not match schema: %v", msgs)
	}
	return nil
}
