package sinks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/INIT-SGGW/HackArena2.0-MonoTanks/logging"
)

// ZerologSink writes events as structured log lines through a zerolog
// logger, for production deployments piping to log aggregation. The router
// keeps owning fan-out, buffering, and backpressure; zerolog only owns how
// one event becomes a line.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink wraps an already-configured zerolog.Logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

func (s *ZerologSink) Write(event logging.Event) error {
	evt := s.logger.WithLevel(zerologLevel(event.Severity)).
		Str("type", string(event.Type)).
		Uint64("tick", event.Tick).
		Str("actorKind", string(event.Actor.Kind)).
		Str("actorId", event.Actor.ID).
		Str("category", event.Category)

	if len(event.Targets) > 0 {
		ids := make([]string, len(event.Targets))
		for i, t := range event.Targets {
			ids[i] = t.ID
		}
		evt = evt.Strs("targets", ids)
	}
	if event.TraceID != "" {
		evt = evt.Str("traceId", event.TraceID)
	}
	if event.Payload != nil {
		evt = evt.Interface("payload", event.Payload)
	}
	evt.Msg(string(event.Type))
	return nil
}

func (s *ZerologSink) Close(context.Context) error {
	return nil
}

func zerologLevel(sev logging.Severity) zerolog.Level {
	switch sev {
	case logging.SeverityDebug:
		return zerolog.DebugLevel
	case logging.SeverityInfo:
		return zerolog.InfoLevel
	case logging.SeverityWarn:
		return zerolog.WarnLevel
	case logging.SeverityError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
