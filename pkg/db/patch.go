package db

// StripAbsent returns a copy of the patch without nil-valued entries. Absent
// fields must never reach the store as sentinel values; a field missing from
// the patch keeps its stored value.
func StripAbsent(patch map[string]any) map[string]any {
	clean := make(map[string]any, len(patch))
	for key, value := range patch {
		if value == nil {
			continue
		}
		clean[key] = value
	}
	return clean
}
