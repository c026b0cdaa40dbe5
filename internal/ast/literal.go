package ast

import (
	"strconv"
	"strings"
)

// StringValue returns the value of a plain string literal text, prefix and quotes removed.
// Escapes are decoded for non-raw literals; undecodable text is returned verbatim.
func StringValue(text string) string {
	i := strings.IndexAny(text, `'"`)
	if i < 0 {
		return text
	}
	prefix := strings.ToLower(text[:i])
	body := text[i:]
	q := body[:1]
	if strings.HasPrefix(body, q+q+q) && len(body) >= 6 {
		body = body[3 : len(body)-3]
	} else if len(body) >= 2 {
		body = body[1 : len(body)-1]
	}
	if strings.Contains(prefix, "r") || !strings.Contains(body, `\`) {
		return body
	}
	if v, err := strconv.Unquote(`"` + strings.ReplaceAll(body, `"`, `\"`) + `"`); err == nil {
		return v
	}
	return body
}
