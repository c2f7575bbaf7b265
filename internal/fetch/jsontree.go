package fetch

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
)

// SynthesizeTree renders a JSON payload as a minimal nested-tag document:
// object keys become tag names and list items become repeated child tags, so
// {"articles":[{"title":"a"},{"title":"b"}]} selects as "articles title".
func SynthesizeTree(data []byte) ([]byte, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	var b strings.Builder
	b.WriteString("<body>")
	writeValue(&b, "item", payload)
	b.WriteString("</body>")
	return []byte(b.String()), nil
}

// writeValue renders one JSON value under the tag name inherited from its
// parent key. Lists do not introduce a wrapper of their own; each element
// repeats the parent tag.
func writeValue(b *strings.Builder, tag string, v any) {
	switch val := v.(type) {
	case map[string]any:
		b.WriteString("<" + tag + ">")
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writeField(b, tagName(key), val[key])
		}
		b.WriteString("</" + tag + ">")
	case []any:
		for _, item := range val {
			writeValue(b, tag, item)
		}
	default:
		b.WriteString("<" + tag + ">")
		b.WriteString(html.EscapeString(scalarText(val)))
		b.WriteString("</" + tag + ">")
	}
}

// writeField renders an object member, flattening lists into repeated tags.
func writeField(b *strings.Builder, tag string, v any) {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			writeValue(b, tag, item)
		}
		return
	}
	writeValue(b, tag, v)
}

func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// tagName lowercases a JSON key and strips anything the HTML tokenizer would
// choke on. Keys that would produce an empty or digit-leading name get an
// "x-" prefix so the element still round-trips through the parser.
func tagName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "x-" + name
	}
	return name
}
