package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a backend entity. The backend is not consistent about sending
// identifiers as strings, numbers or embedded objects, so all three are
// accepted when decoding.
type ID string

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '{':
		// embedded entity, e.g. "assignedStaff": {"id": 7, "fullName": "..."}
		var ref struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return fmt.Errorf("unmarshal id: %w", err)
		}

		*id = ref.ID
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal id: %w", err)
		}

		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unmarshal id: %w", err)
		}

		*id = ID(n.String())
	}

	return nil
}
