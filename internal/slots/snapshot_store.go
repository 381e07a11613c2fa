package slots

import "context"

// SnapshotStore persists the whole engine state as one document. The
// engine writes after every mutation, fire-and-forget: in-memory state
// stays authoritative and a store outage only widens the window of
// increments that a crash could lose.
type SnapshotStore interface {
	// Save writes the document wholesale.
	Save(ctx context.Context, doc *SnapshotDocument) error
	// Load reads the last saved document. Returns (nil, nil) when no
	// snapshot has ever been written.
	Load(ctx context.Context) (*SnapshotDocument, error)
}
