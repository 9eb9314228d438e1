package hook

import "fmt"

// --------------------------------------------------------------------------
// Event Types
// --------------------------------------------------------------------------

// EventType identifies which mutating client operation produced an event.
type EventType int

const (
	EventSet EventType = iota
	EventSetRaw
	EventDelete
	EventBatchSet
	EventBatchDelete
)

func (e EventType) String() string {
	switch e {
	case EventSet:
		return "Set"
	case EventSetRaw:
		return "SetRaw"
	case EventDelete:
		return "Delete"
	case EventBatchSet:
		return "BatchSet"
	case EventBatchDelete:
		return "BatchDelete"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Event
// --------------------------------------------------------------------------

// Event is one unit of hook fan-out. Batch operations emit one event per
// key, never one for the whole batch. Value carries the encoded bytes for
// set-type events and is nil for deletes.
type Event struct {
	Type  EventType
	Key   string
	Value []byte
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Key: %s}", e.Type, e.Key)
}
