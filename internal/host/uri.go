package host

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URIFromPath returns a file:// URI for path, made absolute when possible.
func URIFromPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// PathFromURI returns the filesystem path of a file:// URI. Anything else is returned unchanged, so plain paths work too.
func PathFromURI(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}
