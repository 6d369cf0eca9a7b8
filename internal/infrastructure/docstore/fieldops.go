package docstore

// applyUpdate applies a partial update to a decoded document. Set-membership
// ops are idempotent: adding a present member or removing an absent one
// leaves the field unchanged.
func applyUpdate(doc map[string]any, update Update) {
	for field, value := range update.Set {
		doc[field] = value
	}

	for field, member := range update.SetAdd {
		members := stringSet(doc[field])
		found := false
		for _, m := range members {
			if m == member {
				found = true
				break
			}
		}
		if !found {
			members = append(members, member)
		}
		doc[field] = members
	}

	for field, member := range update.SetRemove {
		members := stringSet(doc[field])
		kept := make([]string, 0, len(members))
		for _, m := range members {
			if m != member {
				kept = append(kept, m)
			}
		}
		doc[field] = kept
	}
}

// stringSet coerces a decoded JSON array into a string slice. Non-string
// members are dropped; any other shape yields an empty set.
func stringSet(v any) []string {
	switch vv := v.(type) {
	case []string:
		out := make([]string, len(vv))
		copy(out, vv)
		return out
	case []any:
		out := make([]string, 0, len(vv))
		for _, m := range vv {
			if s, ok := m.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
