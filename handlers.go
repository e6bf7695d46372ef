package pagesmith

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagesmith/engine"
	"github.com/eringen/pagesmith/views"
)

// Paths served by built-in handlers unless the route table claims them.
const (
	sitemapPath = "/sitemap.xml"
	robotsPath  = "/robots.txt"
)

// Messages shown on error pages. The route, template id or cause follows.
const (
	msgRouteNotFound    = "Route or file not found: "
	msgTemplateNotFound = "Template not found: "
	msgRenderFailed     = "Error rendering template: "
)

func (a *App) handlePage(c echo.Context) error {
	route := engine.NormalizePath(c.Request().URL.Path)

	page, err := a.Site.Render(route)
	switch {
	case err == nil:
		a.Logger.Debug("served template", zap.String("route", route), zap.String("template", page.Template))
		return c.HTMLBlob(http.StatusOK, page.HTML)

	case errors.Is(err, engine.ErrRouteNotFound):
		if file, ok := a.lookupAsset(route); ok {
			return c.File(file)
		}
		return echo.NewHTTPError(http.StatusNotFound, msgRouteNotFound+route)

	case errors.Is(err, engine.ErrTemplateMissing):
		return echo.NewHTTPError(http.StatusNotFound, msgTemplateNotFound+engine.Detail(err, engine.MetaKeyTemplate))

	default:
		a.Logger.Error("render failed", zap.String("route", route), zap.Error(err))
		cause := engine.Detail(err, engine.MetaKeyCause)
		if cause == "" {
			cause = err.Error()
		}
		return echo.NewHTTPError(http.StatusInternalServerError, msgRenderFailed+cause).SetInternal(err)
	}
}

// routed reports whether the route table claims path. Such paths are served
// by the page handler instead of the built-in ones.
func (a *App) routed(path string) bool {
	_, err := a.Site.Resolve(path)
	return !errors.Is(err, engine.ErrRouteNotFound)
}

func (a *App) handleSitemap(c echo.Context) error {
	if a.routed(sitemapPath) {
		return a.handlePage(c)
	}
	return a.renderSitemap(c, a.Site.Routes())
}

func (a *App) handleRobots(c echo.Context) error {
	if a.routed(robotsPath) {
		return a.handlePage(c)
	}
	if file, ok := a.lookupAsset(robotsPath); ok {
		return c.File(file)
	}
	body := "User-agent: *\nAllow: /\nSitemap: " + SiteURL(a.Config.URL, sitemapPath) + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := ""
	he, ok := err.(*echo.HTTPError)
	if ok {
		code = he.Code
		if msg, isString := he.Message.(string); isString {
			detail = msg
		}
	}

	if wantsJSON(c) {
		if detail == "" {
			detail = http.StatusText(code)
		}
		_ = c.JSON(code, map[string]string{"detail": detail})
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.NotFound(detail))
	case code >= 500:
		if !ok {
			a.Logger.Error("server error", zap.Error(err))
		}
		_ = RenderStatus(c, code, views.ServerError(detail))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}

func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
