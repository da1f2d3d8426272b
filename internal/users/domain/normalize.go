package domain

import (
	"time"
)

// Normalize builds the user view from a raw stored document. Missing fields
// get defaults and the legacy status "close" reads as "closed". The stored
// document is never corrected.
func Normalize(id string, data map[string]interface{}, now time.Time) User {
	u := User{
		ID:                id,
		Name:              stringField(data, FieldName, DefaultName),
		Status:            normalizeStatus(data[FieldStatus]),
		CreatedAt:         timeField(data[FieldCreatedAt], now),
		Memo:              stringField(data, FieldMemo, ""),
		Address:           stringField(data, FieldAddress, ""),
		Friends:           stringsField(data[FieldFriends]),
		DestinationUserID: stringField(data, FieldDestinationUserID, ""),
		CommingFriends:    stringsField(data[FieldCommingFriends]),
	}
	return u
}

func normalizeStatus(v interface{}) string {
	s, _ := v.(string)
	switch s {
	case StatusOpen:
		return StatusOpen
	case legacyStatusClose:
		return StatusClosed
	default:
		return StatusClosed
	}
}

func stringField(data map[string]interface{}, key, def string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return def
}

func timeField(v interface{}, now time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	}
	return now.UTC()
}

func stringsField(v interface{}) []string {
	out := []string{}
	switch arr := v.(type) {
	case []string:
		out = append(out, arr...)
	case []interface{}:
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
