package normalize

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// anchorID derives a content-addressed ID from a kind and its anchoring
// properties. The format is {kind}:{base64url(sha256(canonical)[:12])}.
//
// The canonical string is kind:prop1=val1|prop2=val2 with keys sorted, so
// the same logical anchor always hashes to the same ID no matter how the
// patch was edited into its current shape. Strings are lowercased and
// trimmed, floats printed with fixed precision, and anything structured is
// JSON-marshaled, all so that representation noise never leaks into the ID.
func anchorID(kind string, props map[string]any) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+normalizeValue(props[k]))
	}
	canonical := kind + ":" + strings.Join(pairs, "|")

	hash := sha256.Sum256([]byte(canonical))
	return kind + ":" + base64.RawURLEncoding.EncodeToString(hash[:12])
}

func normalizeValue(val any) string {
	if val == nil {
		return "null"
	}
	switch v := val.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return fmt.Sprintf("%.6f", v)
	case float64:
		return fmt.Sprintf("%.6f", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
