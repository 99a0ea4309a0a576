// api/models/event.go
package models

import (
	"encoding/json"
	"time"
)

// EventKind tags the payload carried by an Event.
type EventKind string

const (
	KindPageView    EventKind = "page_view"
	KindConversion  EventKind = "conversion"
	KindBehavior    EventKind = "user_behavior"
	KindPerformance EventKind = "performance_sample"
)

// ClientIdentity is the (IP, user-agent) pair used to key rate-limit and session state.
type ClientIdentity struct {
	IP        string `json:"user_ip"`
	UserAgent string `json:"user_agent"`
}

// GeoLocation is the result of an IP lookup.
type GeoLocation struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

// LocationKey buckets a location as "Country/City".
func (g *GeoLocation) LocationKey() string {
	country, city := g.Country, g.City
	if country == "" {
		country = "Unknown"
	}
	if city == "" {
		city = "Unknown"
	}
	return country + "/" + city
}

// Payload is implemented by the four event payloads.
type Payload interface {
	Kind() EventKind
}

type PageView struct {
	Page     string `json:"page"`
	Referrer string `json:"referrer,omitempty"`
}

type Conversion struct {
	Type     string                 `json:"conversion_type"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type Behavior struct {
	Action string                 `json:"action"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// PerformanceSample is one request timing. Latency is in seconds.
type PerformanceSample struct {
	Endpoint   string  `json:"endpoint"`
	Latency    float64 `json:"response_time"`
	StatusCode int     `json:"status_code"`
}

func (PageView) Kind() EventKind          { return KindPageView }
func (Conversion) Kind() EventKind        { return KindConversion }
func (Behavior) Kind() EventKind          { return KindBehavior }
func (PerformanceSample) Kind() EventKind { return KindPerformance }

// Event is one immutable analytics fact.
type Event struct {
	ID        string
	Timestamp time.Time
	SessionID string
	Client    ClientIdentity
	Geo       *GeoLocation
	Payload   Payload
}

func (e Event) Kind() EventKind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// MarshalJSON flattens the payload next to the common fields.
func (e Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		ID        string          `json:"event_id"`
		Type      EventKind       `json:"type"`
		Timestamp time.Time       `json:"timestamp"`
		SessionID string          `json:"session_id,omitempty"`
		UserIP    string          `json:"user_ip"`
		UserAgent string          `json:"user_agent"`
		Geo       *GeoLocation    `json:"geo_data"`
		Data      json.RawMessage `json:"data"`
	}{e.ID, e.Kind(), e.Timestamp, e.SessionID, e.Client.IP, e.Client.UserAgent, e.Geo, payload})
}

// PageVisit is one entry of a session's ordered visit list.
type PageVisit struct {
	Page      string    `json:"page"`
	Timestamp time.Time `json:"timestamp"`
	Referrer  string    `json:"referrer,omitempty"`
}

// Session groups the page views believed to belong to one visit.
type Session struct {
	ID        string         `json:"session_id"`
	StartTime time.Time      `json:"start_time"`
	Client    ClientIdentity `json:"client"`
	Geo       *GeoLocation   `json:"geo_data,omitempty"`
	Pages     []PageVisit    `json:"pages"`
}

// Duration is last visit minus first visit; zero for single-page sessions.
func (s Session) Duration() time.Duration {
	if len(s.Pages) < 2 {
		return 0
	}
	return s.Pages[len(s.Pages)-1].Timestamp.Sub(s.Pages[0].Timestamp)
}

// Counters are the lifetime running totals kept by the recorder.
type Counters struct {
	PageViews   map[string]int      `json:"page_views"`
	Conversions map[string]int      `json:"conversions"`
	Locations   map[string]Location `json:"locations"`
}

type Location struct {
	PageViews   int            `json:"page_views"`
	Conversions map[string]int `json:"conversions,omitempty"`
}
