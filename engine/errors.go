package engine

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// Error codes for the request pipeline.
const (
	ErrCodeRoute    = "SITE_ROUTE"
	ErrCodeTemplate = "SITE_TEMPLATE"
	ErrCodeRender   = "SITE_RENDER"
	ErrCodeDate     = "SITE_DATE"
)

// Metadata keys attached to pipeline errors.
const (
	MetaKeyRoute    = "route"
	MetaKeyTemplate = "template"
	MetaKeyCause    = "cause"
	MetaKeyValue    = "value"
)

// Sentinels wrapped by every pipeline error. Test with errors.Is.
var (
	ErrRouteNotFound   = errors.New("route not in table")
	ErrTemplateMissing = errors.New("template file missing")
	ErrRender          = errors.New("render failed")
	ErrDateParse       = errors.New("invalid date")
)

func newRouteNotFoundError(route string) error {
	return cuserr.WrapStdError(ErrRouteNotFound, ErrCodeRoute, "route not in table: "+route).
		WithMetadata(MetaKeyRoute, route)
}

func newTemplateMissingError(route, templateID string) error {
	return cuserr.WrapStdError(ErrTemplateMissing, ErrCodeTemplate, "template file missing: "+templateID).
		WithMetadata(MetaKeyRoute, route).
		WithMetadata(MetaKeyTemplate, templateID)
}

func newRenderError(route, templateID string, cause error) error {
	return cuserr.WrapStdError(ErrRender, ErrCodeRender, fmt.Sprintf("render %s: %v", templateID, cause)).
		WithMetadata(MetaKeyRoute, route).
		WithMetadata(MetaKeyTemplate, templateID).
		WithMetadata(MetaKeyCause, cause.Error())
}

func newDateParseError(value string) error {
	return cuserr.WrapStdError(ErrDateParse, ErrCodeDate,
		fmt.Sprintf("invalid date %q: expected MM/YYYY or MM/DD/YYYY", value)).
		WithMetadata(MetaKeyValue, value)
}

// Detail returns the metadata value stored under key on a pipeline error,
// or "" when err carries none.
func Detail(err error, key string) string {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return ""
	}
	v, _ := customErr.GetMetadata(key)
	return v
}
