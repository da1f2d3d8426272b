package storage

// Apply returns a copy of data with the updates applied in order. Backends
// without native array operators (redis, postgres) run it inside their
// read-modify-write transactions.
//
// Array semantics follow Firestore: a union appends only values not already
// present and keeps the existing order; a remove deletes every occurrence. A
// union on a missing or non-array field replaces it with the given values, a
// remove on one leaves an empty array.
func Apply(data map[string]interface{}, updates ...Update) map[string]interface{} {
	out := make(map[string]interface{}, len(data)+len(updates))
	for k, v := range data {
		out[k] = v
	}

	for _, u := range updates {
		switch u.Op {
		case OpSet:
			out[u.Field] = u.Value
		case OpDelete:
			delete(out, u.Field)
		case OpArrayUnion:
			current := Strings(out[u.Field])
			for _, v := range u.Values {
				if !contains(current, v) {
					current = append(current, v)
				}
			}
			out[u.Field] = toInterfaces(current)
		case OpArrayRemove:
			current := Strings(out[u.Field])
			kept := make([]string, 0, len(current))
			for _, v := range current {
				if !contains(u.Values, v) {
					kept = append(kept, v)
				}
			}
			out[u.Field] = toInterfaces(kept)
		}
	}

	return out
}

// Strings converts a stored array value into a string slice, dropping
// non-string elements. Non-array values yield an empty slice.
func Strings(v interface{}) []string {
	switch arr := v.(type) {
	case []string:
		out := make([]string, len(arr))
		copy(out, arr)
		return out
	case []interface{}:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func toInterfaces(list []string) []interface{} {
	out := make([]interface{}, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}
