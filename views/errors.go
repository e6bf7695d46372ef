// Package views holds the server's own pages. Site pages are html/template
// files owned by the site; these templ components cover the error responses
// the server renders itself.
package views

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
)

// NotFound renders the 404 page. detail names the missing route, file or
// template.
func NotFound(detail string) templ.Component {
	return errorPage(http.StatusNotFound, "Page not found", detail)
}

// ServerError renders the 500 page.
func ServerError(detail string) templ.Component {
	return errorPage(http.StatusInternalServerError, "Something went wrong", detail)
}

func errorPage(code int, title, detail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status := strconv.Itoa(code)
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+status+` `+templ.EscapeString(title)+`</title><style>`+errorCSS+`</style></head>`+
			`<body><main><p class="code">`+status+`</p><h1>`+templ.EscapeString(title)+`</h1>`); err != nil {
			return err
		}
		if detail != "" {
			if _, err := io.WriteString(w, `<p class="detail">`+templ.EscapeString(detail)+`</p>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<a href="/">Back to home</a></main></body></html>`)
		return err
	})
}

const errorCSS = `body{margin:0;font-family:system-ui,sans-serif;background:#fafaf9;color:#1c1917}` +
	`main{max-width:36rem;margin:15vh auto;padding:0 1.5rem}` +
	`.code{font-size:.8rem;letter-spacing:.2em;color:#78716c}` +
	`h1{margin:.25rem 0 1rem;font-size:1.75rem}` +
	`.detail{font-family:ui-monospace,monospace;background:#f5f5f4;padding:.75rem 1rem;border-radius:.375rem;word-break:break-all}` +
	`a{color:inherit}`
