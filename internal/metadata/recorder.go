package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Fetch timings and HTTP status codes
- Cache lookups (identity and outcome)
- Cache file and list file writes
- Recovered and propagated failures

Metadata is write-only.
No component may read metadata to influence caching decisions.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordFetch(event FetchEvent)
	RecordCacheLookup(identity string, outcome LookupOutcome)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// Recorder is the MetadataSink that writes every event as a structured zerolog line.
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) *Recorder {
	return &Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	evt := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String())
	withAttrs(evt, attrs).Msg(details)
}

func (r *Recorder) RecordFetch(event FetchEvent) {
	r.logger.Info().
		Str("url", event.FetchURL).
		Int("status", event.HTTPStatus).
		Dur("duration", event.Duration).
		Str("content_type", event.ContentType).
		Msg("request completed")
}

func (r *Recorder) RecordCacheLookup(identity string, outcome LookupOutcome) {
	r.logger.Debug().
		Str("identity", identity).
		Str("outcome", string(outcome)).
		Msg("cache lookup")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	evt := r.logger.Debug().
		Str("kind", string(kind)).
		Str("path", path)
	withAttrs(evt, attrs).Msg("artifact written")
}

func withAttrs(evt *zerolog.Event, attrs []Attribute) *zerolog.Event {
	for _, attr := range attrs {
		evt = evt.Str(string(attr.Key), attr.Value)
	}
	return evt
}

// NoopSink implements MetadataSink but does nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(event FetchEvent) {}

func (n *NoopSink) RecordCacheLookup(identity string, outcome LookupOutcome) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
