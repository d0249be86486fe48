package vpos

import (
	"bytes"
	"encoding/json"
)

const redacted = "[REDACTED]"

// RedactTokens returns a copy of a gateway or webhook body with every "token" value
// replaced, for logging above Debug. Bodies that are not JSON yield nil.
func RedactTokens(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return nil
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if k == "token" {
				t[k] = redacted
				continue
			}
			t[k] = redactValue(val)
		}
	case []any:
		for i, val := range t {
			t[i] = redactValue(val)
		}
	}
	return v
}
