package service

import (
	"regexp"
	"strings"
)

// Matches src/href attribute values in the root document. Textual
// rewriting is deliberate: an HTML parser would re-serialize the whole
// document and touch markup the build author never asked us to touch
var (
	attrRef   = regexp.MustCompile(`(?i)\b(src|href)=(["'])([^"']*)(["'])`)
	schemeRef = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)
)

// RewriteRelativeReferences rewrites every relative src/href attribute
// value in doc into an absolute URL under proxyBase, leaving absolute,
// scheme-relative, data:, blob: and fragment references alone.
// tokenSuffix, when non empty, must start with "?token=" and is carried
// onto every rewritten URL so a sandboxed iframe can keep fetching the
// assets of a non published build without sending headers
func RewriteRelativeReferences(doc []byte, proxyBase, tokenSuffix string) []byte {
	base := strings.TrimRight(proxyBase, "/")

	return attrRef.ReplaceAllFunc(doc, func(m []byte) []byte {
		sub := attrRef.FindSubmatch(m)
		val := string(sub[3])

		if val == "" || isAbsoluteRef(val) {
			return m
		}

		rel := strings.TrimPrefix(val, "./")
		rel = strings.TrimLeft(rel, "/")

		suffix := tokenSuffix
		if suffix != "" && strings.Contains(rel, "?") {
			suffix = "&" + strings.TrimPrefix(suffix, "?")
		}

		return []byte(string(sub[1]) + "=" + string(sub[2]) + base + "/" + rel + suffix + string(sub[4]))
	})
}

// isAbsoluteRef is the explicit grammar for "doesn't need rewriting":
// any scheme prefix, scheme-relative //, data:, blob: or a fragment
func isAbsoluteRef(v string) bool {
	if strings.HasPrefix(v, "#") || strings.HasPrefix(v, "//") {
		return true
	}

	// data: and blob: match the scheme regexp too, they're spelled out
	// here because they're the forms actually seen in game builds
	if strings.HasPrefix(v, "data:") || strings.HasPrefix(v, "blob:") {
		return true
	}

	return schemeRef.MatchString(v)
}
