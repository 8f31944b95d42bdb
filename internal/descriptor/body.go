package descriptor

import (
	"bytes"
	"encoding/json"

	"github.com/schemacat/schemacat/internal/registry"
)

// placeholderFor maps a registry field type to the JSON placeholder
// token used in example bodies. Tokens are raw JSON so that floats
// keep their decimal point and collections render as empty literals.
func placeholderFor(dataType string) string {
	switch dataType {
	case "int", "integer", "duration", "rating", "check":
		return "0"
	case "float", "currency", "percent", "number":
		return "0.0"
	case "bool", "boolean":
		return "false"
	case "table", "list", "array":
		return "[]"
	case "object", "json", "geolocation":
		return "{}"
	default:
		// string, text, date, datetime, select, link, attach, ...
		return `""`
	}
}

// recordBody renders the example request body for Create/Update: the
// projection of non-excluded fields onto placeholders, keyed by field
// name in declaration order. The output is byte-identical across runs
// on unchanged input, which the diff engine's no-op detection relies
// on.
func recordBody(fields []registry.FieldSpec) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		if f.System || f.Auditable {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(f.Name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(placeholderFor(f.DataType))
	}
	buf.WriteByte('}')
	return buf.String()
}

// methodBody renders the example body for a custom method call:
// {"args": [parameter names...]}.
func methodBody(params []string) string {
	var buf bytes.Buffer
	buf.WriteString(`{"args":[`)
	for i, p := range params {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(p)
		buf.Write(name)
	}
	buf.WriteString(`]}`)
	return buf.String()
}
