package sitedata

import (
	"errors"
	"fmt"

	"github.com/itsatony/go-cuserr"
)

// Error codes and metadata keys attached to configuration errors.
const (
	ErrCodeConfig = "SITE_CONFIG"
	MetaKeyFile   = "file"
)

// ErrConfig is the sentinel every configuration error wraps.
var ErrConfig = errors.New("configuration error")

func newConfigError(file string, cause error) error {
	return cuserr.WrapStdError(ErrConfig, ErrCodeConfig, fmt.Sprintf("invalid %s: %v", file, cause)).
		WithMetadata(MetaKeyFile, file)
}
