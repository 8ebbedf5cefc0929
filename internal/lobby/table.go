package lobby

// Table is one entry in the lobby's ordered collection. IDs are assigned by
// the collection on insert and are never reused.
type Table struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Participants uint64 `json:"participants"`
}

// FrontID is the after-id sentinel meaning "at the front of the collection".
const FrontID int64 = -1

// EventKind classifies committed collection mutations.
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventRemoved
)

var eventKindNames = map[EventKind]string{
	EventAdded:   "added",
	EventUpdated: "updated",
	EventRemoved: "removed",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is one committed mutation, stamped with the version that committed
// it. Versions are strictly increasing, one per mutation, no gaps.
type Event struct {
	Kind    EventKind
	Version uint64

	// Table carries the inserted or updated table for EventAdded and
	// EventUpdated.
	Table Table

	// AfterID is the id of the table immediately preceding the inserted one,
	// or FrontID when it was inserted at the front. Set for EventAdded.
	AfterID int64

	// ID identifies the removed table for EventRemoved.
	ID int64
}
