// Package shutdown provides graceful shutdown for minikv.
//
// A Handler collects cleanup hooks (stop listeners, stop the config
// watcher) and runs them in reverse registration order when the process
// receives SIGINT or SIGTERM, all under one timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	if err := h.Wait(ctx); err != nil {
//		// some hook failed
//	}
package shutdown
