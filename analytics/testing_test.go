package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"portfolio/api/models"
)

var testStart = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newFakeClock(t time.Time) clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t)
}

type fakeResolver struct {
	mu        sync.Mutex
	locations map[string]models.GeoLocation
	calls     []string
}

func (r *fakeResolver) Resolve(ip string) (models.GeoLocation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, ip)
	loc, ok := r.locations[ip]
	return loc, ok
}

type fakeSink struct {
	mu      sync.Mutex
	batches [][]models.Event
	err     error
}

func (s *fakeSink) InsertEvents(_ context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, append([]models.Event(nil), events...))
	return s.err
}

func (s *fakeSink) Batches() [][]models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][]models.Event(nil), s.batches...)
}

func newTestRecorder(opts ...Option) (*Recorder, *Aggregator, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(testStart)
	store := NewMemoryStore()

	recorder := NewRecorder(store, append([]Option{WithClock(clock)}, opts...)...)
	return recorder, NewAggregator(store, clock), clock
}

func client(ip string) models.ClientIdentity {
	return models.ClientIdentity{IP: ip, UserAgent: "go-test"}
}
