// Package backend defines the renderer backend abstraction and its
// registry.
//
// A backend wraps one subtitle renderer implementation. Backends
// register themselves from init functions in their own packages, so
// importing a backend package is what makes it selectable:
//
//	import _ "github.com/subgo/subrender/backend/soft"
//	import _ "github.com/subgo/subrender/backend/libass"
//
// Renderer instances are not assumed to be safe for concurrent use;
// callers serialize access. Backends whose underlying library is not
// even safe across unrelated instances do their own process-global
// locking internally.
package backend
