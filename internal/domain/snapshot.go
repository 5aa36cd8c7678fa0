package domain

import "time"

// Snapshot is a read-only view of marketplace items as of one full read
// pass. It has no identity of its own and is replaced wholesale on every
// refresh, never patched, so a published Snapshot is always internally
// consistent.
type Snapshot struct {
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Find returns the item with the given id, if present.
func (s Snapshot) Find(id uint64) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Len returns the number of items in the snapshot.
func (s Snapshot) Len() int { return len(s.Items) }

// Session holds the active account bound at startup. Replacing the account
// means replacing the whole session.
type Session struct {
	Account Address   `json:"account"`
	BoundAt time.Time `json:"bound_at"`
}

// EngineState is the entire contract the presentation layer may depend on.
// It is published wholesale on every state change.
type EngineState struct {
	Session    *Session `json:"session,omitempty"`
	Busy       bool     `json:"busy"`
	AllItems   Snapshot `json:"all_items"`
	OwnedItems Snapshot `json:"owned_items"`
	LastError  error    `json:"-"`
	Warning    error    `json:"-"`
}
