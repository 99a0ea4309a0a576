package analytics

import (
	"net"
	"time"

	"emperror.dev/errors"
	"github.com/oschwald/geoip2-golang"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"portfolio/api/models"
)

const (
	geoCacheTTL     = 24 * time.Hour
	geoCacheCleanup = time.Hour
)

// Resolver maps an IP address to a location. ok is false when the address cannot be resolved.
type Resolver interface {
	Resolve(ip string) (loc models.GeoLocation, ok bool)
}

// Locatable reports whether ip may be sent to a Resolver.
func Locatable(ip string) bool {
	switch ip {
	case "", "127.0.0.1", "::1", "localhost", "unknown":
		return false
	}
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return false
	}
	return true
}

// cityReader is the part of *geoip2.Reader the resolver uses.
type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// MaxMindResolver looks addresses up in a GeoLite2 City database.
// Results, including misses, are cached for a day.
type MaxMindResolver struct {
	reader cityReader
	cache  *cache.Cache
	logger logrus.FieldLogger
}

func NewMaxMindResolver(path string, logger logrus.FieldLogger) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "failed to open GeoIP database", "path", path)
	}

	return newMaxMindResolver(reader, logger), nil
}

func newMaxMindResolver(reader cityReader, logger logrus.FieldLogger) *MaxMindResolver {
	return &MaxMindResolver{
		reader: reader,
		cache:  cache.New(geoCacheTTL, geoCacheCleanup),
		logger: logger,
	}
}

func (r *MaxMindResolver) Resolve(ip string) (models.GeoLocation, bool) {
	if cached, ok := r.cache.Get(ip); ok {
		loc := cached.(*models.GeoLocation)
		if loc == nil {
			return models.GeoLocation{}, false
		}
		return *loc, true
	}

	loc := r.lookup(ip)
	r.cache.SetDefault(ip, loc)
	if loc == nil {
		return models.GeoLocation{}, false
	}
	return *loc, true
}

func (r *MaxMindResolver) lookup(ip string) *models.GeoLocation {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		r.logger.WithError(err).WithField("ip", ip).Warn("geo lookup failed")
		return nil
	}
	if record.Country.IsoCode == "" {
		return nil
	}

	return &models.GeoLocation{
		Country:     record.Country.Names["en"],
		CountryCode: record.Country.IsoCode,
		City:        record.City.Names["en"],
		Latitude:    record.Location.Latitude,
		Longitude:   record.Location.Longitude,
		Timezone:    record.Location.TimeZone,
	}
}

func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}
