package importer

// Type-guard getters over decoded JSON values. Shape mismatches yield zero
// values instead of panics; validation decides what is actually wrong.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func getStringOr(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func getIntPtr(m map[string]any, key string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	n, ok := asInt(v)
	if !ok {
		return nil
	}
	return &n
}

func getIntOr(m map[string]any, key string, def int) int {
	if n, ok := asInt(m[key]); ok {
		return n
	}
	return def
}

func getBoolOr(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func getMap(m map[string]any, key string) map[string]any {
	mm, _ := m[key].(map[string]any)
	return mm
}

func getSlice(m map[string]any, key string) []any {
	s, _ := m[key].([]any)
	return s
}

func getStringSlice(m map[string]any, key string) []string {
	raw := getSlice(m, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getIntMap coerces a JSON object of numeric values, dropping entries that
// do not parse as integers.
func getIntMap(m map[string]any, key string) map[string]int {
	raw := getMap(m, key)
	if raw == nil {
		return nil
	}
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		if n, ok := asInt(v); ok {
			out[k] = n
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
