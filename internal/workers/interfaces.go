// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// running multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start is expected to launch the worker's goroutines and return; Stop must
// block until the worker has fully terminated. Both the network monitor and
// the sync driver satisfy this contract directly.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
