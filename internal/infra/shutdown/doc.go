// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// Hooks run in reverse registration order under one shared deadline, so
// components registered last (listeners) stop before the ones they depend
// on (the catalog, the tracer provider).
package shutdown
