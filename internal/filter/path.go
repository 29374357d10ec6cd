package filter

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/climateengine/build-sensor/internal/core"
)

const (
	rootHeaders = "headers"
	rootBody    = "body"
)

// SplitPath splits a dotted path into segments. A backslash escapes a dot
// so keys that contain dots can still be addressed ("a\.b" is one segment).
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	var (
		segments []string
		current  strings.Builder
	)
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '\\' && i+1 < len(path) && path[i+1] == '.':
			current.WriteByte('.')
			i++
		case c == '.':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(segments, current.String())
}

// Resolve looks path up in the envelope's JSON document (see
// core.Envelope.JSON) with gjson path syntax: dots separate keys, "\." escapes
// a literal dot and numeric segments index arrays. The first segment must be
// "headers" or "body", and a header path names exactly one header. The
// boolean is false when the path does not resolve.
func Resolve(env *core.Envelope, path string) (any, bool) {
	if env == nil {
		return nil, false
	}
	segments := SplitPath(path)
	if len(segments) == 0 {
		return nil, false
	}

	switch segments[0] {
	case rootHeaders:
		if len(segments) != 2 {
			return nil, false
		}
	case rootBody:
	default:
		return nil, false
	}

	doc, err := env.JSON()
	if err != nil {
		return nil, false
	}
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}
