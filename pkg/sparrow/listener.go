package sparrow

import "github.com/google/uuid"

// Listener bundles the notification callbacks for one registration.
// Any subset may be set; nil callbacks are skipped. Callbacks run
// synchronously in the goroutine performing the mutation and must not
// block.
type Listener struct {
	// Update is called after a successful storage update of the
	// instance, and on SendUpdate.
	Update func(in *Instance)

	// Delete is called after a successful storage delete of the
	// instance. The registration is discarded afterwards.
	Delete func(in *Instance)

	// ReferenceAdded is called when a real-time reference of the
	// instance is pointed at referenced.
	ReferenceAdded func(in, referenced *Instance)

	// ReferenceRemoved is called when a real-time reference of the
	// instance is pointed away from referenced.
	ReferenceRemoved func(in, referenced *Instance)
}

// ListenerToken identifies one listener registration on one instance.
type ListenerToken string

func newListenerToken() ListenerToken {
	return ListenerToken(uuid.NewString())
}
