package redirect

import (
	"net/url"
	"strings"
)

const dummyOrigin = "http://localhost"

var base, _ = url.Parse(dummyOrigin)

// Sanitize turns an untrusted redirect_to / return_to value into a
// same-origin path. Parsed values keep only path and query; values that do
// not parse are accepted only when they start with "/". Values carrying
// control characters and everything else become "/".
func Sanitize(raw string) string {
	// Browsers drop tab and newline while parsing a Location, so "/\t/host"
	// would become "//host".
	if raw == "" || strings.IndexFunc(raw, isControl) >= 0 {
		return "/"
	}

	u, err := base.Parse(raw)
	if err != nil {
		if strings.HasPrefix(raw, "/") {
			return collapseLeadingSlashes(raw)
		}
		return "/"
	}

	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		// opaque URLs such as "javascript:..." have no usable path
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return collapseLeadingSlashes(path)
}

// collapseLeadingSlashes prevents "//host" and "/\host" from being read as
// protocol-relative URLs by browsers.
func collapseLeadingSlashes(p string) string {
	trimmed := strings.TrimLeft(p, "/\\")
	if len(trimmed) == len(p)-1 {
		return p
	}
	return "/" + trimmed
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
