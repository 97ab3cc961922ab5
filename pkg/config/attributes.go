package config

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var attrRe = regexp.MustCompile(`([A-Za-z_:][0-9A-Za-z_:\-.]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// verbatimKeys are never decoded: a caption such as "Step 1: login" must
// stay a string rather than become a YAML mapping.
var verbatimKeys = map[string]bool{
	KeyCaption:  true,
	KeyCacheDir: true,
	KeyToolPath: true,
	KeyFormat:   true,
}

// ParseAttributes parses the key="value" attributes of a diagram tag.
//
// Values are decoded as YAML so that as_image="false" yields a bool,
// width="2" an int and params="{tsvg: true}" a mapping. A value that is
// not valid YAML is kept as the raw string.
func ParseAttributes(s string) map[string]any {
	out := make(map[string]any)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		key, raw := m[1], m[2]
		if raw == "" {
			raw = m[3]
		}
		out[key] = decodeValue(key, raw)
	}
	return out
}

// TagLayer parses tag attributes into the highest-precedence option layer.
func TagLayer(attrs string) Layer {
	return Layer{Name: "tag", Values: ParseAttributes(attrs)}
}

func decodeValue(key, raw string) any {
	if verbatimKeys[key] || raw == "" {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	return v
}
