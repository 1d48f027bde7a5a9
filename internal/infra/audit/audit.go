package audit

import "github.com/rs/zerolog"

// Event is one structured system-log record. Fire-and-forget telemetry,
// never part of a transactional contract.
type Event struct {
	LogType      string
	Severity     string
	Endpoint     string
	Method       string
	StatusCode   int
	URL          string
	ErrorMessage string
	Metadata     map[string]interface{}
}

// Sink writes audit events to the structured log.
type Sink struct {
	log zerolog.Logger
}

func NewSink(log zerolog.Logger) *Sink {
	return &Sink{log: log}
}

func (s *Sink) Record(e Event) {
	var entry *zerolog.Event
	switch e.Severity {
	case "error":
		entry = s.log.Error()
	case "warning":
		entry = s.log.Warn()
	default:
		entry = s.log.Info()
	}

	entry = entry.
		Str("log_type", e.LogType).
		Str("endpoint", e.Endpoint).
		Str("method", e.Method).
		Int("status_code", e.StatusCode)
	if e.URL != "" {
		entry = entry.Str("url", e.URL)
	}
	if e.ErrorMessage != "" {
		entry = entry.Str("error_message", e.ErrorMessage)
	}
	if len(e.Metadata) > 0 {
		entry = entry.Fields(map[string]interface{}{"metadata": e.Metadata})
	}
	entry.Msg("system event")
}
