// Package scaffold provides the embedded starter site written by
// "pagesmith new".
package scaffold

import "embed"

// Templates contains all scaffold files under templates/.
// Files with a .tmpl suffix are executed as Go text/template with [[ ]]
// delimiters so the site templates inside them can keep {{ }}. Everything
// else is copied verbatim.
//
//go:embed all:templates
var Templates embed.FS

// Root is the directory inside Templates that holds the scaffold tree.
const Root = "templates"

// LeftDelim and RightDelim are the action delimiters used by .tmpl files.
const (
	LeftDelim  = "[["
	RightDelim = "]]"
)
