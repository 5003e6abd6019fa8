// Package workspace manages the ephemeral directory each compile runs in.
//
// A Manager is shared by all requests; every call to Acquire creates a fresh
// directory (docpress-*) under the base directory, copies the configured
// template assets into it and returns a Workspace. The Workspace owns the
// directory exclusively and removes it on Release, which callers defer
// immediately after a successful Acquire:
//
//	ws, err := mgr.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer ws.Release()
package workspace
