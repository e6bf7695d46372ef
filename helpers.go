package pagesmith

import (
	"net/url"
	"strings"
)

// SiteURL joins a base URL with a route. The route is appended verbatim so
// trailing slashes and ".html" suffixes survive.
func SiteURL(base, route string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimRight(base, "/") + route
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	u.Path = strings.TrimRight(u.Path, "/") + route
	return u.String()
}
