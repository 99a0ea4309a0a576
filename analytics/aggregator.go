package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"portfolio/api/models"
	"portfolio/api/utils"
)

const (
	NoPerformanceData = "No performance data available"

	topN          = 10
	topCities     = 5
	unknownRegion = "Unknown"

	day = 24 * time.Hour
)

// Aggregator builds read-only reports over a Store.
type Aggregator struct {
	store Store
	clock clockwork.Clock
}

func NewAggregator(store Store, clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{store: store, clock: clock}
}

func (a *Aggregator) since(window time.Duration) time.Time {
	return a.clock.Now().Add(-window)
}

func hoursWindow(hours int) time.Duration {
	return utils.HoursWindow(hours)
}

func timePeriod(hours int) string {
	return fmt.Sprintf("Last %d hours", hours)
}

func (a *Aggregator) Summary(hours int) models.Summary {
	since := a.since(hoursWindow(hours))
	events := a.store.Events(since)

	pageViews := make(map[string]int)
	conversions := make(map[string]int)
	locations := make(map[string]*models.LocationSummary)
	location := func(geo *models.GeoLocation) *models.LocationSummary {
		key := geo.LocationKey()
		loc, ok := locations[key]
		if !ok {
			loc = &models.LocationSummary{Conversions: map[string]int{}}
			locations[key] = loc
		}
		return loc
	}

	for _, event := range events {
		switch payload := event.Payload.(type) {
		case models.PageView:
			pageViews[payload.Page]++
			if event.Geo != nil {
				location(event.Geo).PageViews++
			}
		case models.Conversion:
			conversions[payload.Type]++
			if event.Geo != nil {
				location(event.Geo).Conversions[payload.Type]++
			}
		}
	}

	geographic := make(map[string]models.LocationSummary)
	for key, loc := range locations {
		if loc.PageViews == 0 {
			continue
		}
		loc.ConversionRate = conversionRate(sum(loc.Conversions), loc.PageViews)
		geographic[key] = *loc
	}

	topLocations := make([]models.LocationRank, 0, len(geographic))
	for key, loc := range geographic {
		topLocations = append(topLocations, models.LocationRank{Location: key, LocationSummary: loc})
	}
	sort.Slice(topLocations, func(i, j int) bool {
		if topLocations[i].PageViews != topLocations[j].PageViews {
			return topLocations[i].PageViews > topLocations[j].PageViews
		}
		return topLocations[i].Location < topLocations[j].Location
	})
	if len(topLocations) > topN {
		topLocations = topLocations[:topN]
	}

	totalViews, totalConversions := sum(pageViews), sum(conversions)

	return models.Summary{
		TimePeriod:       timePeriod(hours),
		TotalPageViews:   totalViews,
		TotalConversions: totalConversions,
		ConversionRate:   conversionRate(totalConversions, totalViews),
		PageViews:        pageViews,
		Conversions:      conversions,
		GeographicData:   geographic,
		Performance:      performanceOverview(a.store.Performance(since)),
		Sessions:         sessionStats(a.store.Sessions(since)),
		TopPages:         rank(pageViews, topN),
		TopConversions:   rank(conversions, topN),
		TopLocations:     topLocations,
	}
}

func (a *Aggregator) Geographic(hours int) models.GeographicReport {
	events := a.store.Events(a.since(hoursWindow(hours)))

	type countryData struct {
		pageViews   int
		conversions map[string]int
		cities      map[string]int
		sessions    map[string]struct{}
	}
	data := make(map[string]*countryData)

	for _, event := range events {
		if event.Geo == nil {
			continue
		}
		country := orUnknown(event.Geo.Country)
		d, ok := data[country]
		if !ok {
			d = &countryData{
				conversions: map[string]int{},
				cities:      map[string]int{},
				sessions:    map[string]struct{}{},
			}
			data[country] = d
		}
		d.sessions[event.SessionID] = struct{}{}

		switch payload := event.Payload.(type) {
		case models.PageView:
			d.pageViews++
			d.cities[orUnknown(event.Geo.City)]++
		case models.Conversion:
			d.conversions[payload.Type]++
		}
	}

	countries := make(map[string]models.CountryStats, len(data))
	ranked := make([]models.CountryRank, 0, len(data))
	for country, d := range data {
		stats := models.CountryStats{
			PageViews:      d.pageViews,
			UniqueSessions: len(d.sessions),
			Conversions:    d.conversions,
			ConversionRate: conversionRate(sum(d.conversions), d.pageViews),
			TopCities:      rank(d.cities, topCities),
		}
		countries[country] = stats
		ranked = append(ranked, models.CountryRank{Country: country, CountryStats: stats})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PageViews != ranked[j].PageViews {
			return ranked[i].PageViews > ranked[j].PageViews
		}
		return ranked[i].Country < ranked[j].Country
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return models.GeographicReport{
		TimePeriod:     timePeriod(hours),
		Countries:      countries,
		TotalCountries: len(countries),
		TopCountries:   ranked,
	}
}

// Performance reports per-endpoint latency. An empty window yields a report with Error set.
func (a *Aggregator) Performance(hours int) models.PerformanceReport {
	samples := a.store.Performance(a.since(hoursWindow(hours)))
	report := models.PerformanceReport{TimePeriod: timePeriod(hours)}

	type endpointData struct {
		statusCodes map[int]int
		latencies   []float64
	}
	data := make(map[string]*endpointData)
	var all []float64

	for _, event := range samples {
		sample, ok := event.Payload.(models.PerformanceSample)
		if !ok {
			continue
		}
		d, ok := data[sample.Endpoint]
		if !ok {
			d = &endpointData{statusCodes: map[int]int{}}
			data[sample.Endpoint] = d
		}
		d.statusCodes[sample.StatusCode]++
		d.latencies = append(d.latencies, sample.Latency)
		all = append(all, sample.Latency)
	}

	if len(all) == 0 {
		report.Error = NoPerformanceData
		return report
	}

	report.TotalRequests = len(all)
	report.OverallAvgResponseTime = round3(mean(all))
	report.Endpoints = make(map[string]models.EndpointStats, len(data))

	ranked := make([]models.EndpointRank, 0, len(data))
	for endpoint, d := range data {
		sorted := append([]float64(nil), d.latencies...)
		sort.Float64s(sorted)

		var errorCount int
		for code, n := range d.statusCodes {
			if code >= 400 {
				errorCount += n
			}
		}

		stats := models.EndpointStats{
			RequestCount:       len(sorted),
			AvgResponseTime:    round3(mean(sorted)),
			MedianResponseTime: round3(median(sorted)),
			MinResponseTime:    round3(sorted[0]),
			MaxResponseTime:    round3(sorted[len(sorted)-1]),
			ErrorRate:          round2(percent(errorCount, len(sorted))),
			StatusCodes:        d.statusCodes,
		}
		report.Endpoints[endpoint] = stats
		ranked = append(ranked, models.EndpointRank{Endpoint: endpoint, EndpointStats: stats})
	}

	slowest := append([]models.EndpointRank(nil), ranked...)
	sort.Slice(slowest, func(i, j int) bool {
		if slowest[i].AvgResponseTime != slowest[j].AvgResponseTime {
			return slowest[i].AvgResponseTime > slowest[j].AvgResponseTime
		}
		return slowest[i].Endpoint < slowest[j].Endpoint
	})
	mostUsed := ranked
	sort.Slice(mostUsed, func(i, j int) bool {
		if mostUsed[i].RequestCount != mostUsed[j].RequestCount {
			return mostUsed[i].RequestCount > mostUsed[j].RequestCount
		}
		return mostUsed[i].Endpoint < mostUsed[j].Endpoint
	})
	if len(slowest) > topN {
		slowest, mostUsed = slowest[:topN], mostUsed[:topN]
	}
	report.TopSlowestEndpoints = slowest
	report.TopMostUsedEndpoints = mostUsed

	return report
}

func (a *Aggregator) Behavior(hours int) models.BehaviorReport {
	since := a.since(hoursWindow(hours))

	actions := make(map[string]int)
	var behaviorEvents int
	for _, event := range a.store.Events(since) {
		if behavior, ok := event.Payload.(models.Behavior); ok {
			actions[behavior.Action]++
			behaviorEvents++
		}
	}

	sessions := a.store.Sessions(since)

	var bounces int
	journeys := make(map[string]*models.Journey)
	var journeyOrder []string
	for _, session := range sessions {
		if len(session.Pages) == 1 {
			bounces++
			continue
		}

		pages := make([]string, len(session.Pages))
		for i, visit := range session.Pages {
			pages[i] = visit.Page
		}
		key := strings.Join(pages, "\x00")
		if journey, ok := journeys[key]; ok {
			journey.Count++
			continue
		}
		journeys[key] = &models.Journey{Pages: pages, Count: 1}
		journeyOrder = append(journeyOrder, key)
	}

	common := make([]models.Journey, 0, len(journeys))
	for _, key := range journeyOrder {
		common = append(common, *journeys[key])
	}
	sort.SliceStable(common, func(i, j int) bool {
		return common[i].Count > common[j].Count
	})
	if len(common) > topN {
		common = common[:topN]
	}

	return models.BehaviorReport{
		TimePeriod:          timePeriod(hours),
		TotalBehaviorEvents: behaviorEvents,
		ActionBreakdown:     actions,
		Sessions: models.BehaviorSessionStats{
			SessionStats: sessionStats(sessions),
			BounceRate:   percent(bounces, len(sessions)),
		},
		UserJourneys: models.JourneyStats{
			TotalUniqueJourneys: len(journeys),
			MostCommonJourneys:  common,
		},
	}
}

func (a *Aggregator) Conversions(hours int) models.ConversionReport {
	events := a.store.Events(a.since(hoursWindow(hours)))

	byType := make(map[string]int)
	byLocation := make(map[string]map[string]int)
	var pageViews int
	for _, event := range events {
		switch payload := event.Payload.(type) {
		case models.PageView:
			pageViews++
		case models.Conversion:
			byType[payload.Type]++
			if event.Geo != nil {
				key := event.Geo.LocationKey()
				if byLocation[key] == nil {
					byLocation[key] = map[string]int{}
				}
				byLocation[key][payload.Type]++
			}
		}
	}

	total := sum(byType)
	return models.ConversionReport{
		TimePeriod:            timePeriod(hours),
		TotalConversions:      total,
		ConversionRate:        conversionRate(total, pageViews),
		ConversionsByType:     byType,
		TopConversions:        rank(byType, topN),
		GeographicConversions: byLocation,
	}
}

// RealTime is the last hour's summary with live session and event counts plus lifetime totals.
func (a *Aggregator) RealTime() models.RealTimeReport {
	return models.RealTimeReport{
		Summary: a.Summary(1),
		RealTime: models.RealTimeStats{
			ActiveSessions:      len(a.store.Sessions(a.since(time.Hour))),
			CurrentMinuteEvents: len(a.store.Events(a.since(time.Minute))),
		},
		Lifetime: a.store.Counters(),
	}
}

// Trends splits the last days*24 hours into consecutive day buckets, oldest first.
func (a *Aggregator) Trends(days int) models.TrendsReport {
	if days < 1 {
		days = 1
	}
	if days > utils.MaxDays {
		days = utils.MaxDays
	}
	now := a.clock.Now()
	since := now.Add(-time.Duration(days) * day)

	trends := make([]models.DailyTrend, days)
	latencies := make([][]float64, days)
	for i := range trends {
		trends[i].Start = since.Add(time.Duration(i) * day).UTC()
	}
	bucket := func(ts time.Time) int {
		i := int(ts.Sub(since) / day)
		if i < 0 {
			return 0
		}
		if i >= days {
			return days - 1
		}
		return i
	}

	for _, event := range a.store.Events(since) {
		switch event.Payload.(type) {
		case models.PageView:
			trends[bucket(event.Timestamp)].PageViews++
		case models.Conversion:
			trends[bucket(event.Timestamp)].Conversions++
		}
	}
	for _, event := range a.store.Performance(since) {
		if sample, ok := event.Payload.(models.PerformanceSample); ok {
			i := bucket(event.Timestamp)
			latencies[i] = append(latencies[i], sample.Latency)
		}
	}

	for i := range trends {
		trends[i].ConversionRate = conversionRate(trends[i].Conversions, trends[i].PageViews)
		trends[i].Requests = len(latencies[i])
		trends[i].AvgResponseTime = round3(mean(latencies[i]))
	}

	return models.TrendsReport{
		TimePeriod: fmt.Sprintf("Last %d days", days),
		Days:       trends,
	}
}

func performanceOverview(samples []models.Event) models.PerformanceOverview {
	var (
		latencies []float64
		errors    int
	)
	for _, event := range samples {
		sample, ok := event.Payload.(models.PerformanceSample)
		if !ok {
			continue
		}
		latencies = append(latencies, sample.Latency)
		if sample.StatusCode >= 400 {
			errors++
		}
	}

	return models.PerformanceOverview{
		AvgResponseTime: round3(mean(latencies)),
		TotalRequests:   len(latencies),
		ErrorRate:       round2(percent(errors, len(latencies))),
	}
}

// sessionStats averages duration over multi-page sessions and pages over all sessions.
func sessionStats(sessions []models.Session) models.SessionStats {
	var durations []float64
	var pages int
	for _, session := range sessions {
		if len(session.Pages) > 1 {
			durations = append(durations, session.Duration().Seconds())
		}
		pages += len(session.Pages)
	}

	stats := models.SessionStats{
		TotalSessions:      len(sessions),
		AvgSessionDuration: round2(mean(durations)),
	}
	if len(sessions) > 0 {
		stats.AvgPagesPerSession = round2(float64(pages) / float64(len(sessions)))
	}
	return stats
}

func rank(counts map[string]int, limit int) []models.NameCount {
	out := make([]models.NameCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, models.NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return unknownRegion
	}
	return s
}

func sum(counts map[string]int) int {
	var total int
	for _, n := range counts {
		total += n
	}
	return total
}

func conversionRate(conversions, pageViews int) float64 {
	if pageViews == 0 {
		return 0
	}
	return round2(float64(conversions) / float64(pageViews) * 100)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// median takes the upper middle element of an even-length set.
func median(sorted []float64) float64 {
	return sorted[len(sorted)/2]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
