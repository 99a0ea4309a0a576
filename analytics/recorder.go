// Package analytics records page views, conversions, behavior events and request timings,
// and summarizes them over lookback windows.
package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
	"portfolio/api/utils"
)

// Option configures a Recorder.
type Option interface {
	apply(r *Recorder)
}

type optionFunc func(r *Recorder)

func (fn optionFunc) apply(r *Recorder) {
	fn(r)
}

// WithResolver enables geographic enrichment.
func WithResolver(resolver Resolver) Option {
	return optionFunc(func(r *Recorder) {
		r.resolver = resolver
	})
}

// WithExporter forwards every recorded event to exporter.
func WithExporter(exporter Exporter) Option {
	return optionFunc(func(r *Recorder) {
		r.exporter = exporter
	})
}

func WithClock(clock clockwork.Clock) Option {
	return optionFunc(func(r *Recorder) {
		r.clock = clock
	})
}

func WithLogger(logger logrus.FieldLogger) Option {
	return optionFunc(func(r *Recorder) {
		r.logger = logger
	})
}

// Recorder turns tracking calls into events on a Store.
type Recorder struct {
	store    Store
	resolver Resolver
	exporter Exporter
	clock    clockwork.Clock
	logger   logrus.FieldLogger
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		clock:  clockwork.NewRealClock(),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

func (r *Recorder) RecordPageView(client models.ClientIdentity, page, referrer, sessionID string) models.Event {
	return r.record(client, sessionID, true, models.PageView{Page: page, Referrer: referrer})
}

func (r *Recorder) RecordConversion(client models.ClientIdentity, conversionType, sessionID string, metadata map[string]interface{}) models.Event {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return r.record(client, sessionID, true, models.Conversion{Type: conversionType, Metadata: metadata})
}

func (r *Recorder) RecordBehavior(client models.ClientIdentity, action, sessionID string, data map[string]interface{}) models.Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return r.record(client, sessionID, false, models.Behavior{Action: action, Data: data})
}

// RecordPerformance stores one request timing. Samples carry no session or location.
func (r *Recorder) RecordPerformance(client models.ClientIdentity, endpoint string, latency time.Duration, statusCode int) models.Event {
	event := models.Event{
		ID:        uuid.New().String(),
		Timestamp: r.clock.Now().UTC(),
		Client:    client,
		Payload: models.PerformanceSample{
			Endpoint:   endpoint,
			Latency:    latency.Seconds(),
			StatusCode: statusCode,
		},
	}
	r.commit(event)
	return event
}

func (r *Recorder) record(client models.ClientIdentity, sessionID string, locate bool, payload models.Payload) models.Event {
	now := r.clock.Now().UTC()
	if sessionID == "" {
		sessionID = utils.SessionID(client.IP, client.UserAgent, now)
	}

	event := models.Event{
		ID:        uuid.New().String(),
		Timestamp: now,
		SessionID: sessionID,
		Client:    client,
		Payload:   payload,
	}
	if locate {
		event.Geo = r.locate(client.IP)
	}

	r.commit(event)
	return event
}

func (r *Recorder) commit(event models.Event) {
	r.store.Append(event)
	if r.exporter != nil {
		r.exporter.Export(event)
	}
}

func (r *Recorder) locate(ip string) *models.GeoLocation {
	if r.resolver == nil || !Locatable(ip) {
		return nil
	}

	loc, ok := r.resolver.Resolve(ip)
	if !ok {
		r.logger.WithField("ip", ip).Debug("no geographic data")
		return nil
	}
	return &loc
}
