// Package events delivers named notifications to subscribed handlers.
package events

// Event names sent by metadata sources.
const (
	// AlbumExtract carries the raw release JSON (map[string]any) as soon as a
	// release has been fetched, before it is converted.
	AlbumExtract = "mb_album_extract"

	// AlbumInfoReceived carries the converted autotag.Candidate.
	AlbumInfoReceived = "albuminfo_received"
)

// Handler receives the payload of one notification.
type Handler func(payload any)

// Bus calls handlers synchronously, in the order they subscribed.
// It is not safe for concurrent use.
type Bus struct {
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for the named event.
func (b *Bus) Subscribe(name string, h Handler) {
	b.handlers[name] = append(b.handlers[name], h)
}

// Send delivers payload to every handler of the named event. Sending on a
// nil bus does nothing.
func (b *Bus) Send(name string, payload any) {
	if b == nil {
		return
	}
	for _, h := range b.handlers[name] {
		h(payload)
	}
}
