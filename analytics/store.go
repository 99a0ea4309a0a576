package analytics

import (
	"sync"
	"time"

	"portfolio/api/models"
)

// PerformanceCap bounds the retained performance samples.
const PerformanceCap = 1000

// Store holds recorded events, the sessions derived from page views and the lifetime counters.
type Store interface {
	Append(event models.Event)
	Events(since time.Time) []models.Event
	Performance(since time.Time) []models.Event
	Sessions(since time.Time) []models.Session
	Counters() models.Counters
}

// MemoryStore keeps everything for the process lifetime except performance samples,
// of which only the most recent PerformanceCap are retained.
type MemoryStore struct {
	mu sync.RWMutex

	events      []models.Event
	performance []models.Event

	sessions     map[string]*models.Session
	sessionOrder []string

	pageViews   map[string]int
	conversions map[string]int
	locations   map[string]*models.Location
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*models.Session),
		pageViews:   make(map[string]int),
		conversions: make(map[string]int),
		locations:   make(map[string]*models.Location),
	}
}

func (s *MemoryStore) Append(event models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch payload := event.Payload.(type) {
	case models.PerformanceSample:
		s.performance = append(s.performance, event)
		if len(s.performance) > PerformanceCap {
			s.performance = append([]models.Event(nil), s.performance[len(s.performance)-PerformanceCap:]...)
		}
		return

	case models.PageView:
		s.pageViews[payload.Page]++
		if event.Geo != nil {
			s.location(event.Geo).PageViews++
		}
		s.visit(event, payload)

	case models.Conversion:
		s.conversions[payload.Type]++
		if event.Geo != nil {
			loc := s.location(event.Geo)
			if loc.Conversions == nil {
				loc.Conversions = make(map[string]int)
			}
			loc.Conversions[payload.Type]++
		}
	}

	s.events = append(s.events, event)
}

func (s *MemoryStore) location(geo *models.GeoLocation) *models.Location {
	key := geo.LocationKey()
	loc, ok := s.locations[key]
	if !ok {
		loc = &models.Location{}
		s.locations[key] = loc
	}
	return loc
}

func (s *MemoryStore) visit(event models.Event, view models.PageView) {
	session, ok := s.sessions[event.SessionID]
	if !ok {
		session = &models.Session{
			ID:        event.SessionID,
			StartTime: event.Timestamp,
			Client:    event.Client,
			Geo:       event.Geo,
		}
		s.sessions[event.SessionID] = session
		s.sessionOrder = append(s.sessionOrder, event.SessionID)
	}

	session.Pages = append(session.Pages, models.PageVisit{
		Page:      view.Page,
		Timestamp: event.Timestamp,
		Referrer:  view.Referrer,
	})
}

// Events returns page views, conversions and behavior events recorded at or after since.
func (s *MemoryStore) Events(since time.Time) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterEvents(s.events, since)
}

func (s *MemoryStore) Performance(since time.Time) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterEvents(s.performance, since)
}

// Sessions returns copies of the sessions started at or after since, in creation order.
func (s *MemoryStore) Sessions(since time.Time) []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Session
	for _, id := range s.sessionOrder {
		session := s.sessions[id]
		if session.StartTime.Before(since) {
			continue
		}
		copied := *session
		copied.Pages = append([]models.PageVisit(nil), session.Pages...)
		out = append(out, copied)
	}
	return out
}

func (s *MemoryStore) Counters() models.Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counters := models.Counters{
		PageViews:   make(map[string]int, len(s.pageViews)),
		Conversions: make(map[string]int, len(s.conversions)),
		Locations:   make(map[string]models.Location, len(s.locations)),
	}
	for page, n := range s.pageViews {
		counters.PageViews[page] = n
	}
	for kind, n := range s.conversions {
		counters.Conversions[kind] = n
	}
	for key, loc := range s.locations {
		copied := models.Location{PageViews: loc.PageViews}
		if loc.Conversions != nil {
			copied.Conversions = make(map[string]int, len(loc.Conversions))
			for kind, n := range loc.Conversions {
				copied.Conversions[kind] = n
			}
		}
		counters.Locations[key] = copied
	}
	return counters
}

func filterEvents(events []models.Event, since time.Time) []models.Event {
	var out []models.Event
	for _, event := range events {
		if !event.Timestamp.Before(since) {
			out = append(out, event)
		}
	}
	return out
}
