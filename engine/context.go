package engine

import (
	"os"
	"strings"

	"github.com/eringen/pagesmith/sitedata"
)

// Reserved top-level keys injected into every RenderContext. They take
// precedence over data keys of the same name.
const (
	EnvKey     = "env"
	ContextKey = "context"
)

// RenderContext is the namespace a template executes against.
type RenderContext map[string]any

// BuildContext layers the live environment and the "all data" accessor over
// data. The environment is read on every call so changes are observed
// without a restart. ContextKey holds a copy of the context built so far,
// letting templates range over every top-level key without naming them.
func BuildContext(data sitedata.Data) RenderContext {
	rc := make(RenderContext, len(data)+2)
	for k, v := range data {
		rc[k] = v
	}
	rc[EnvKey] = Environ()

	all := make(map[string]any, len(rc))
	for k, v := range rc {
		all[k] = v
	}
	rc[ContextKey] = all
	return rc
}

// Environ snapshots the process environment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

// reservedKeys lists data keys that BuildContext will shadow.
func reservedKeys(data sitedata.Data) []string {
	var keys []string
	for _, k := range []string{EnvKey, ContextKey} {
		if _, ok := data[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
