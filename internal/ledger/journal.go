package ledger

// Journal records undo actions for state changes so that a group of changes
// can be rolled back as a unit. A Journal is not safe for concurrent use.
type Journal struct {
	undo []func()
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Append registers the action that reverses the change just made.
func (j *Journal) Append(undo func()) {
	if j == nil || undo == nil {
		return
	}
	j.undo = append(j.undo, undo)
}

// Snapshot returns an identifier for the current position.
func (j *Journal) Snapshot() int {
	if j == nil {
		return 0
	}
	return len(j.undo)
}

// RevertTo undoes every change recorded after the snapshot, newest first.
func (j *Journal) RevertTo(id int) {
	if j == nil {
		return
	}
	if id < 0 {
		id = 0
	}
	for i := len(j.undo) - 1; i >= id; i-- {
		j.undo[i]()
	}
	if id < len(j.undo) {
		j.undo = j.undo[:id]
	}
}

// Atomic runs fn and reverts everything it changed if it returns an error.
func (j *Journal) Atomic(fn func() error) error {
	id := j.Snapshot()
	if err := fn(); err != nil {
		j.RevertTo(id)
		return err
	}
	return nil
}

// Commit drops all recorded undo actions.
func (j *Journal) Commit() {
	if j == nil {
		return
	}
	j.undo = j.undo[:0]
}

// Len reports the number of pending undo actions.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	return len(j.undo)
}
