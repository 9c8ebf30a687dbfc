package combat

import (
	"go.uber.org/zap"
)

// EventKind classifies a combat event.
type EventKind int

const (
	EventMessage EventKind = iota
	EventUpdateEntity
	EventScrollTo
	EventCombatStarted
	EventCombatEnded
	EventTurnStarted
	EventConfirmationRequested
	EventDeath
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventUpdateEntity:
		return "update_entity"
	case EventScrollTo:
		return "scroll_to"
	case EventCombatStarted:
		return "combat_started"
	case EventCombatEnded:
		return "combat_ended"
	case EventTurnStarted:
		return "turn_started"
	case EventConfirmationRequested:
		return "confirmation_requested"
	case EventDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Event is a notification for the presentation layer.
type Event struct {
	Kind    EventKind
	Subject string
	Round   int
	Text    string
}

// EventSink receives combat events. Emit is called with the World lock held
// and must not block or call back into the combat package.
type EventSink interface {
	Emit(e Event)
}

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink. A nil logger discards events.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(e Event) {
	s.logger.Info("combat event",
		zap.Stringer("kind", e.Kind),
		zap.String("subject", e.Subject),
		zap.Int("round", e.Round),
		zap.String("text", e.Text),
	)
}

// ChannelSink forwards events to a buffered channel, dropping events when the
// buffer is full.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, size)}
}

func (s *ChannelSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
