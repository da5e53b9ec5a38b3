package worker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var propertyKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// RenderProperties renders cfg as a Java properties file with keys sorted.
func RenderProperties(cfg map[string]string) (string, error) {
	if len(cfg) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := &strings.Builder{}
	for _, k := range keys {
		v := cfg[k]
		if !propertyKeyPattern.MatchString(k) {
			return "", fmt.Errorf("invalid property name %q", k)
		}
		if strings.ContainsAny(v, "\n\r") {
			return "", fmt.Errorf("invalid property %q: value contains newline", k)
		}

		fmt.Fprintf(b, "%s=%s\n", k, strings.ReplaceAll(v, `\`, `\\`))
	}

	return b.String(), nil
}
