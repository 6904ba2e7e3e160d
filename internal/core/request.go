package core

import (
	"bytes"
	"encoding/json"
)

// ValidationError is a caller mistake in the request body.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrContactsRequired = &ValidationError{Field: "contacts", Message: "contacts (array) required"}
	ErrMessageRequired  = &ValidationError{Field: "message", Message: "message required"}
)

// ParseSendRequest decodes and validates a relay request body. Contacts are
// checked before the message. A body that is not a JSON object is treated as
// an empty one. Keys are matched exactly: "Contacts" is not "contacts".
func ParseSendRequest(body []byte) (SendRequest, error) {
	// A map keeps key case intact; struct decoding would fold it.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	contacts, ok := parseContacts(fields["contacts"])
	if !ok {
		return SendRequest{}, ErrContactsRequired
	}

	var msg string
	raw := fields["message"]
	if !isJSONString(raw) || json.Unmarshal(raw, &msg) != nil || msg == "" {
		return SendRequest{}, ErrMessageRequired
	}

	return SendRequest{Contacts: contacts, Message: msg}, nil
}

func parseContacts(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if !isJSONString(it) || json.Unmarshal(it, &s) != nil || s == "" {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// isJSONString rejects null, which json.Unmarshal would silently accept.
func isJSONString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
