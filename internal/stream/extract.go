package stream

import (
	"encoding/json"
	"strconv"
)

// fallbackKeys lists the payload fields that may carry reply text, in precedence order.
var fallbackKeys = []string{"response", "message", "answer", "text", "content"}

const sessionKey = "session_id"

// ExtractText returns the first non-empty text field of a decoded payload.
// Empty strings, zero, false and null are treated as absent so the next key is tried.
// Payloads that are not JSON objects carry no text.
func ExtractText(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range fallbackKeys {
		if s, ok := present(obj[key]); ok {
			return s, true
		}
	}
	return "", false
}

// ExtractSessionID returns the session identifier carried by a payload, if any.
func ExtractSessionID(payload any) (string, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return "", false
	}
	return present(obj[sessionKey])
}

// present formats a JSON value as text, reporting false for empty or falsy values.
func present(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
		return val.String(), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
