package ports

import "context"

// Fields is a partial document used for merge updates and equality filters.
type Fields map[string]any

// Order sorts a collection by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query selects an ordered, optionally filtered, view of a collection.
type Query struct {
	OrderBy Order
	Where   Fields
}

// Collection is a named remote collection of documents of type T.
//
// Writes never return the written document: subscribers learn about every
// write, their own included, through the next snapshot.
type Collection[T any] interface {
	Name() string
	// Subscribe delivers the full ordered result of q now and again after
	// every write to the collection, until the stream is closed or fails.
	Subscribe(ctx context.Context, q Query) (SnapshotStream[T], error)
	List(ctx context.Context, q Query) ([]T, error)
	// Get returns domain.ErrNotFound when id does not exist.
	Get(ctx context.Context, id string) (T, error)
	// Create assigns the id and the server timestamp.
	Create(ctx context.Context, doc T) (string, error)
	// Set creates or replaces the document stored under id.
	Set(ctx context.Context, id string, doc T) error
	// Update merges fields into an existing document, domain.ErrNotFound otherwise.
	Update(ctx context.Context, id string, fields Fields) error
	// Delete succeeds whether or not id exists.
	Delete(ctx context.Context, id string) error
}

// SnapshotStream carries full snapshots of a query. Snapshots holds at most
// one pending snapshot; a newer one replaces it. A value on Errors is fatal.
// Channels are never closed: readers stop on Close or context cancellation.
type SnapshotStream[T any] interface {
	Snapshots() <-chan []T
	Errors() <-chan error
	Close()
}

// ChangeNotifier fans out "collection changed" signals to every listener,
// across processes when backed by a broker.
type ChangeNotifier interface {
	Notify(ctx context.Context, collection string) error
	// Listen returns once the listener is registered, so no change published
	// after Listen returns is missed.
	Listen(ctx context.Context, collection string) (ChangeListener, error)
}

// ChangeListener receives coalesced change signals for one collection.
type ChangeListener interface {
	Changes() <-chan struct{}
	Errors() <-chan error
	Close()
}

// View is the read side of a live binding at one point in time.
type View[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Version uint64 `json:"version"`
}
