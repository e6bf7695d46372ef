package pagesmith

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pagesmith/sitedata"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapRoutes returns the routes that are pages: those ending in "/" or
// ".html", in sorted order.
func SitemapRoutes(routes sitedata.RouteTable) []string {
	var out []string
	for _, route := range routes.Paths() {
		if strings.HasSuffix(route, "/") || strings.HasSuffix(route, ".html") {
			out = append(out, route)
		}
	}
	return out
}

func (a *App) renderSitemap(c echo.Context, routes sitedata.RouteTable) error {
	var urls []sitemapURL
	for _, route := range SitemapRoutes(routes) {
		urls = append(urls, sitemapURL{Loc: SiteURL(a.Config.URL, route)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
