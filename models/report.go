package models

import "time"

// NameCount is one row of a top-N ranking.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type LocationSummary struct {
	PageViews      int            `json:"page_views"`
	Conversions    map[string]int `json:"conversions"`
	ConversionRate float64        `json:"conversion_rate"`
}

type LocationRank struct {
	Location string `json:"location"`
	LocationSummary
}

type PerformanceOverview struct {
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalRequests   int     `json:"total_requests"`
	ErrorRate       float64 `json:"error_rate"`
}

type SessionStats struct {
	TotalSessions      int     `json:"total_sessions"`
	AvgSessionDuration float64 `json:"avg_session_duration"`
	AvgPagesPerSession float64 `json:"avg_pages_per_session"`
}

// Summary is the overall analytics report for a lookback window.
type Summary struct {
	TimePeriod       string                     `json:"time_period"`
	TotalPageViews   int                        `json:"total_page_views"`
	TotalConversions int                        `json:"total_conversions"`
	ConversionRate   float64                    `json:"conversion_rate"`
	PageViews        map[string]int             `json:"page_views"`
	Conversions      map[string]int             `json:"conversions"`
	GeographicData   map[string]LocationSummary `json:"geographic_data"`
	Performance      PerformanceOverview        `json:"performance"`
	Sessions         SessionStats               `json:"sessions"`
	TopPages         []NameCount                `json:"top_pages"`
	TopConversions   []NameCount                `json:"top_conversions"`
	TopLocations     []LocationRank             `json:"top_locations"`
}

type CountryStats struct {
	PageViews      int            `json:"page_views"`
	UniqueSessions int            `json:"unique_sessions"`
	Conversions    map[string]int `json:"conversions"`
	ConversionRate float64        `json:"conversion_rate"`
	TopCities      []NameCount    `json:"top_cities"`
}

type CountryRank struct {
	Country string `json:"country"`
	CountryStats
}

type GeographicReport struct {
	TimePeriod     string                  `json:"time_period"`
	Countries      map[string]CountryStats `json:"countries"`
	TotalCountries int                     `json:"total_countries"`
	TopCountries   []CountryRank           `json:"top_countries"`
}

type EndpointStats struct {
	RequestCount       int         `json:"request_count"`
	AvgResponseTime    float64     `json:"avg_response_time"`
	MedianResponseTime float64     `json:"median_response_time"`
	MinResponseTime    float64     `json:"min_response_time"`
	MaxResponseTime    float64     `json:"max_response_time"`
	ErrorRate          float64     `json:"error_rate"`
	StatusCodes        map[int]int `json:"status_codes"`
}

type EndpointRank struct {
	Endpoint string `json:"endpoint"`
	EndpointStats
}

// PerformanceReport carries Error instead of statistics when the window has no samples.
type PerformanceReport struct {
	TimePeriod             string                   `json:"time_period"`
	Error                  string                   `json:"error,omitempty"`
	TotalRequests          int                      `json:"total_requests,omitempty"`
	OverallAvgResponseTime float64                  `json:"overall_avg_response_time,omitempty"`
	Endpoints              map[string]EndpointStats `json:"endpoints,omitempty"`
	TopSlowestEndpoints    []EndpointRank           `json:"top_slowest_endpoints,omitempty"`
	TopMostUsedEndpoints   []EndpointRank           `json:"top_most_used_endpoints,omitempty"`
}

func (r PerformanceReport) HasData() bool {
	return r.TotalRequests > 0
}

type BehaviorSessionStats struct {
	SessionStats
	BounceRate float64 `json:"bounce_rate"`
}

// Journey is a distinct ordered page sequence and how many sessions followed it.
type Journey struct {
	Pages []string `json:"pages"`
	Count int      `json:"count"`
}

type JourneyStats struct {
	TotalUniqueJourneys int       `json:"total_unique_journeys"`
	MostCommonJourneys  []Journey `json:"most_common_journeys"`
}

type BehaviorReport struct {
	TimePeriod          string               `json:"time_period"`
	TotalBehaviorEvents int                  `json:"total_behavior_events"`
	ActionBreakdown     map[string]int       `json:"action_breakdown"`
	Sessions            BehaviorSessionStats `json:"sessions"`
	UserJourneys        JourneyStats         `json:"user_journeys"`
}

type ConversionReport struct {
	TimePeriod            string                    `json:"time_period"`
	TotalConversions      int                       `json:"total_conversions"`
	ConversionRate        float64                   `json:"conversion_rate"`
	ConversionsByType     map[string]int            `json:"conversions_by_type"`
	TopConversions        []NameCount               `json:"top_conversions"`
	GeographicConversions map[string]map[string]int `json:"geographic_conversions"`
}

type RealTimeStats struct {
	ActiveSessions      int `json:"active_sessions"`
	CurrentMinuteEvents int `json:"current_minute_events"`
}

type RealTimeReport struct {
	Summary
	RealTime RealTimeStats `json:"real_time"`
	Lifetime Counters      `json:"lifetime"`
}

// DailyTrend covers the 24 hours starting at Start.
type DailyTrend struct {
	Start           time.Time `json:"start"`
	PageViews       int       `json:"page_views"`
	Conversions     int       `json:"conversions"`
	ConversionRate  float64   `json:"conversion_rate"`
	Requests        int       `json:"requests"`
	AvgResponseTime float64   `json:"avg_response_time"`
}

type TrendsReport struct {
	TimePeriod string       `json:"time_period"`
	Days       []DailyTrend `json:"days"`
}
