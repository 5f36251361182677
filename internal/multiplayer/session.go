package multiplayer

import "sync"

// EventSink receives a session's events in generation order. Send may block;
// the session does not continue until it returns.
type EventSink interface {
	Send(evt SessionEvent)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(evt SessionEvent)

func (f SinkFunc) Send(evt SessionEvent) { f(evt) }

// Tee fans every event out to each sink in order.
func Tee(sinks ...EventSink) EventSink {
	return SinkFunc(func(evt SessionEvent) {
		for _, s := range sinks {
			if s != nil {
				s.Send(evt)
			}
		}
	})
}

// DiscardSink drops everything.
var DiscardSink = SinkFunc(func(SessionEvent) {})

// ChannelSession is an EventSink backed by a Go channel.
// Used by the TUI layer to bridge Bubble Tea with a running session.
type ChannelSession struct {
	id       SessionID
	events   chan SessionEvent
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a channel-based sink.
// bufferSize controls how far the session may run ahead of the reader.
func NewChannelSession(id SessionID, bufferSize int) *ChannelSession {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelSession{
		id:     id,
		events: make(chan SessionEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send delivers evt, blocking while the buffer is full. Events are never
// dropped or reordered; once the reader calls Close, Send returns immediately.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	case <-s.done:
	}
}

// Events returns the channel to receive events from.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.events
}

// Done returns a channel that is closed once the reader has gone away.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the reader as gone. Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}
