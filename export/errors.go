package export

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// ErrCodeExport is the error code of per-route export failures.
const ErrCodeExport = "SITE_EXPORT"

// Metadata keys attached to export item errors.
const (
	MetaKeyRoute = "route"
	MetaKeyPath  = "path"
)

var (
	// ErrExportItem is wrapped by every per-route failure.
	ErrExportItem = errors.New("export item failed")
	// ErrExportLocked is returned when another export holds the output root.
	ErrExportLocked = errors.New("export already running for this output dir")
	// ErrPathCollision marks routes whose output file is claimed by another
	// route, and assets whose path is claimed by a route.
	ErrPathCollision = errors.New("path collision")
)

// newItemError describes a failed route, or a failed asset when route is empty.
func newItemError(route, path string, cause error) error {
	subject := route
	if subject == "" {
		subject = "asset " + path
	}
	return cuserr.WrapStdError(ErrExportItem, ErrCodeExport, fmt.Sprintf("%s: %v", subject, cause)).
		WithMetadata(MetaKeyRoute, route).
		WithMetadata(MetaKeyPath, path)
}
