package nodetype

import (
	"encoding/json"
	"strings"
	"time"
)

// Declared property types with dedicated validation. Any other type name is
// treated as an object type.
const (
	TypeString     = "string"
	TypeBoolean    = "boolean"
	TypeInteger    = "integer"
	TypeFloat      = "float"
	TypeArray      = "array"
	TypeDateTime   = "DateTime"
	TypeReference  = "reference"
	TypeReferences = "references"
)

// MatchesType reports whether value, as decoded from JSON or set from Go,
// satisfies the declared property type. A nil value always matches.
func MatchesType(declared string, value any) bool {
	if value == nil {
		return true
	}
	if strings.HasPrefix(declared, "array<") && strings.HasSuffix(declared, ">") {
		items, ok := asSlice(value)
		if !ok {
			return false
		}
		itemType := strings.TrimSuffix(strings.TrimPrefix(declared, "array<"), ">")
		for _, item := range items {
			if !MatchesType(itemType, item) {
				return false
			}
		}
		return true
	}

	switch declared {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean, "bool":
		_, ok := value.(bool)
		return ok
	case TypeInteger, "int":
		return isInteger(value)
	case TypeFloat, "double":
		return isInteger(value) || isFloat(value)
	case TypeArray:
		_, ok := asSlice(value)
		return ok
	case TypeDateTime:
		text, ok := value.(string)
		if !ok {
			return false
		}
		_, err := time.Parse(time.RFC3339, text)
		return err == nil
	case TypeReference:
		_, ok := value.(string)
		return ok
	case TypeReferences:
		items, ok := asSlice(value)
		if !ok {
			return false
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		switch value.(type) {
		case map[string]any:
			return true
		default:
			// Go values of custom types decode to objects on the wire.
			data, err := json.Marshal(value)
			return err == nil && len(data) > 0 && data[0] == '{'
		}
	}
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int64(v))
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

func isFloat(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}

func asSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, item)
		}
		return out, true
	default:
		return nil, false
	}
}
