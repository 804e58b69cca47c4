package workers

import "context"

// Worker is a long-running background process tied to the server
// lifecycle. Start launches it against ctx; Stop blocks until it has
// fully exited and is safe to call when the worker never started.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
