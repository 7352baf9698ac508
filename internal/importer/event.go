package importer

import (
	"log/slog"

	"github.com/docpipe/docpipe/internal/handler"
)

// EventType identifies a handler lifecycle notification.
type EventType int

const (
	HandlerBegin EventType = iota
	HandlerEnd
	HandlerError
)

func (t EventType) String() string {
	switch t {
	case HandlerBegin:
		return "handler_begin"
	case HandlerEnd:
		return "handler_end"
	case HandlerError:
		return "handler_error"
	}
	return "unknown"
}

// Event is a fire-and-forget notification emitted around each handler
// invocation. It is a pure side channel: nothing a listener does can
// alter the import outcome.
type Event struct {
	Type      EventType
	Reference string
	Handler   string
	State     handler.ParseState
	Err       error // set for HandlerError
}

// Listener receives pipeline events.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

func (f ListenerFunc) Notify(e Event) { f(e) }

// notifier fans events out to listeners, isolating the pipeline from
// listener panics.
type notifier struct {
	listeners []Listener
	log       *slog.Logger
}

func (n *notifier) fire(e Event) {
	for _, l := range n.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					n.log.Warn("event listener panicked",
						"event", e.Type.String(),
						"reference", e.Reference,
						"panic", r,
					)
				}
			}()
			l.Notify(e)
		}()
	}
}

// SlogListener logs every event through the given logger, at debug for
// begin/end and error level for handler failures.
func SlogListener(log *slog.Logger) Listener {
	return ListenerFunc(func(e Event) {
		attrs := []any{
			"reference", e.Reference,
			"handler", e.Handler,
			"state", e.State.String(),
		}
		if e.Type == HandlerError {
			log.Error("handler failed", append(attrs, "error", e.Err)...)
			return
		}
		log.Debug(e.Type.String(), attrs...)
	})
}
