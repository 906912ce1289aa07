package masterdata

// SnapshotReader is the read side of the snapshot store. Consumers resolve
// the current snapshot through this and never touch source files.
type SnapshotReader interface {
	// Read returns the current snapshot for the dataset key. It never
	// blocks on an in-progress reconciliation.
	Read(key string) (*Snapshot, error)
}
