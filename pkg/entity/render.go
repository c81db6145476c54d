package entity

import "regexp"

// tokenPattern matches {{entity.<field>}} tokens in action text templates.
var tokenPattern = regexp.MustCompile(`\{\{\s*entity\.([A-Za-z0-9_]+)\s*\}\}`)

// RenderTokens substitutes {{entity.<field>}} tokens in a text template with
// the snapshot's field values. Unresolved tokens are left literally in place
// so partially populated entities still produce a usable message.
func RenderTokens(input string, snapshot Snapshot) string {
	return tokenPattern.ReplaceAllStringFunc(input, func(token string) string {
		field := tokenPattern.FindStringSubmatch(token)[1]

		value, ok := snapshot.GetString(field)
		if !ok {
			return token
		}

		return value
	})
}

// RenderConfig returns a copy of an action config with every string leaf
// rendered against the snapshot. Non-string values pass through untouched.
func RenderConfig(config map[string]any, snapshot Snapshot) map[string]any {
	if config == nil {
		return nil
	}

	rendered := make(map[string]any, len(config))
	for key, value := range config {
		rendered[key] = renderValue(value, snapshot)
	}

	return rendered
}

func renderValue(value any, snapshot Snapshot) any {
	switch v := value.(type) {
	case string:
		return RenderTokens(v, snapshot)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = renderValue(item, snapshot)
		}

		return out
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = RenderTokens(item, snapshot)
		}

		return out
	case map[string]any:
		return RenderConfig(v, snapshot)
	default:
		return v
	}
}
