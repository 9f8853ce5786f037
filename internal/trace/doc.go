// Package trace is the logging layer of the rook toolchain.
//
// Events are emitted at four scopes: driver (CLI command), pass (the
// indexing pass), module (one root file or loaded module) and node (one
// queued task). The level decides which scopes are written; internal errors
// are always written by enabled tracers.
//
//	rook index --trace=- --trace-level=debug main.rk
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "index", 0)
//	defer span.End("")
package trace
