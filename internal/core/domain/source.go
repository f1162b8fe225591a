package domain

import "time"

// Source is the persisted registration of a corpus: its description and
// a snapshot of the configuration it was last ingested with. The live
// configuration remains owned by the corpus store; this row exists so
// the state database is self-describing.
type Source struct {
	ID          string
	Description string
	Config      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
