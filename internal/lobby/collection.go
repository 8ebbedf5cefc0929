package lobby

import (
	"errors"
	"fmt"
)

// ErrTableNotFound reports a mutation whose target id is absent from the
// collection. The collection is left unchanged.
var ErrTableNotFound = errors.New("table not found")

// Collection is the ordered table sequence and the version counter stamping
// every committed mutation. It is not safe for concurrent use; the Hub
// serializes access to it.
type Collection struct {
	tables  []Table
	nextID  int64
	version uint64
}

func NewCollection() *Collection {
	return &Collection{nextID: 1}
}

// Insert allocates a fresh id and places the new table immediately after the
// table with id afterID. FrontID inserts at the front; an afterID not present
// in the collection appends at the end, the only placement the protocol can
// fall back to.
func (c *Collection) Insert(afterID int64, name string, participants uint64) (Table, Event) {
	t := Table{ID: c.nextID, Name: name, Participants: participants}
	c.nextID++

	idx := 0
	if afterID != FrontID {
		idx = len(c.tables)
		for i := range c.tables {
			if c.tables[i].ID == afterID {
				idx = i + 1
				break
			}
		}
	}

	c.tables = append(c.tables, Table{})
	copy(c.tables[idx+1:], c.tables[idx:])
	c.tables[idx] = t

	// Report the actual predecessor, not the requested one, so a subscriber
	// replaying events reconstructs the exact committed order even when the
	// insert fell back to the end.
	after := FrontID
	if idx > 0 {
		after = c.tables[idx-1].ID
	}

	c.version++
	return t, Event{Kind: EventAdded, Version: c.version, Table: t, AfterID: after}
}

// Update replaces the name and participants of the table with matching id,
// position unchanged.
func (c *Collection) Update(t Table) (Event, error) {
	for i := range c.tables {
		if c.tables[i].ID == t.ID {
			c.tables[i] = t
			c.version++
			return Event{Kind: EventUpdated, Version: c.version, Table: t}, nil
		}
	}
	return Event{}, fmt.Errorf("updating table %d: %w", t.ID, ErrTableNotFound)
}

// Remove deletes the table with the given id, preserving the relative order
// of the remainder.
func (c *Collection) Remove(id int64) (Event, error) {
	for i := range c.tables {
		if c.tables[i].ID == id {
			c.tables = append(c.tables[:i], c.tables[i+1:]...)
			c.version++
			return Event{Kind: EventRemoved, Version: c.version, ID: id}, nil
		}
	}
	return Event{}, fmt.Errorf("removing table %d: %w", id, ErrTableNotFound)
}

// Snapshot returns a copy of the committed state and the version it is
// current as of.
func (c *Collection) Snapshot() ([]Table, uint64) {
	out := make([]Table, len(c.tables))
	copy(out, c.tables)
	return out, c.version
}

func (c *Collection) Version() uint64 {
	return c.version
}

func (c *Collection) Len() int {
	return len(c.tables)
}
