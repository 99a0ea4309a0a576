package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/models"
)

func pageView(page string) models.Event {
	return models.Event{ID: page, Timestamp: testStart, Payload: models.PageView{Page: page}}
}

func TestBatchExporter_FlushOnSize(t *testing.T) {
	sink := &fakeSink{}
	logger, _ := test.NewNullLogger()
	exporter := NewBatchExporter(sink, BatchOptions{BatchSize: 2, Interval: time.Hour}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		exporter.Run(ctx)
		close(done)
	}()

	exporter.Export(pageView("/"))
	exporter.Export(pageView("/about"))

	assert.Eventually(t, func() bool { return len(sink.Batches()) == 1 }, time.Second, 5*time.Millisecond)

	exporter.Export(pageView("/projects"))
	cancel()
	<-done

	batches := sink.Batches()
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Equal(t, "/projects", batches[1][0].ID)
}

func TestBatchExporter_FlushOnInterval(t *testing.T) {
	sink := &fakeSink{}
	logger, _ := test.NewNullLogger()
	exporter := NewBatchExporter(sink, BatchOptions{BatchSize: 100, Interval: 10 * time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go exporter.Run(ctx)

	exporter.Export(pageView("/"))

	assert.Eventually(t, func() bool { return len(sink.Batches()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestBatchExporter_DropsWhenFull(t *testing.T) {
	logger, hook := test.NewNullLogger()
	exporter := NewBatchExporter(&fakeSink{}, BatchOptions{QueueSize: 1}, logger)

	exporter.Export(pageView("/"))
	exporter.Export(pageView("/about"))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "analytics export queue full, dropping event", hook.LastEntry().Message)
}

func TestBatchExporter_SinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("connection refused")}
	logger, hook := test.NewNullLogger()
	exporter := NewBatchExporter(sink, BatchOptions{BatchSize: 1, Interval: time.Hour}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	exporter.Export(pageView("/"))
	cancel()
	exporter.Run(ctx)

	assert.Len(t, sink.Batches(), 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
