// internal/notify/ingest/schema.go
package ingest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// notificationSchema is the admission contract for inbound payloads. A
// message that does not conform never reaches the store.
const notificationSchema = `{
	"type": "object",
	"properties": {
		"id":                   {"type": "string", "minLength": 1},
		"toId":                 {"type": "string", "minLength": 1},
		"createdAt":            {"type": "string"},
		"contentJson":          {"type": "string"},
		"notificationTypeId":   {"type": "integer"},
		"notificationStatusId": {"type": "integer"}
	},
	"required": ["id", "toId", "notificationTypeId"]
}`

var schemaLoader = gojsonschema.NewStringLoader(notificationSchema)

// validatePayload checks a normalized payload against the notification
// schema and returns a single descriptive error when it does not conform.
func validatePayload(normalized []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(normalized))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("schema violations: %s", strings.Join(details, "; "))
}
