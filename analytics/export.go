package analytics

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
)

const (
	DefaultBatchSize     = 100
	DefaultQueueSize     = 1000
	DefaultFlushInterval = 10 * time.Second

	flushTimeout = 15 * time.Second
)

// Exporter receives every recorded event. Export must not block.
type Exporter interface {
	Export(event models.Event)
}

// Sink stores a batch of events outside the process.
type Sink interface {
	InsertEvents(ctx context.Context, events []models.Event) error
}

// BatchExporter queues events and writes them to a Sink in batches.
// Events are dropped when the queue is full or the sink fails.
type BatchExporter struct {
	sink      Sink
	queue     chan models.Event
	batchSize int
	interval  time.Duration
	clock     clockwork.Clock
	logger    logrus.FieldLogger
}

type BatchOptions struct {
	BatchSize int
	QueueSize int
	Interval  time.Duration
	Clock     clockwork.Clock
}

func NewBatchExporter(sink Sink, opts BatchOptions, logger logrus.FieldLogger) *BatchExporter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultFlushInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &BatchExporter{
		sink:      sink,
		queue:     make(chan models.Event, opts.QueueSize),
		batchSize: opts.BatchSize,
		interval:  opts.Interval,
		clock:     opts.Clock,
		logger:    logger,
	}
}

func (e *BatchExporter) Export(event models.Event) {
	select {
	case e.queue <- event:
	default:
		e.logger.WithField("event_type", event.Kind()).Warn("analytics export queue full, dropping event")
	}
}

// Run flushes batches until ctx is done, then drains the queue once more.
func (e *BatchExporter) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	batch := make([]models.Event, 0, e.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		e.flush(batch)
		batch = make([]models.Event, 0, e.batchSize)
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-e.queue:
					batch = append(batch, event)
					if len(batch) >= e.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}

		case event := <-e.queue:
			batch = append(batch, event)
			if len(batch) >= e.batchSize {
				flush()
			}

		case <-ticker.Chan():
			flush()
		}
	}
}

func (e *BatchExporter) flush(batch []models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := e.sink.InsertEvents(ctx, batch); err != nil {
		e.logger.WithError(err).WithField("events", len(batch)).Error("failed to export analytics events")
		return
	}
	e.logger.WithField("events", len(batch)).Debug("exported analytics events")
}
