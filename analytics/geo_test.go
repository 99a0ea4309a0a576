package analytics

import (
	"net"
	"testing"

	"emperror.dev/errors"
	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/api/models"
)

type fakeCityReader struct {
	cities map[string]*geoip2.City
	err    error
	calls  []string
	closed bool
}

func (r *fakeCityReader) City(ip net.IP) (*geoip2.City, error) {
	r.calls = append(r.calls, ip.String())
	if r.err != nil {
		return nil, r.err
	}
	if city, ok := r.cities[ip.String()]; ok {
		return city, nil
	}
	return &geoip2.City{}, nil
}

func (r *fakeCityReader) Close() error {
	r.closed = true
	return nil
}

func berlin() *geoip2.City {
	city := &geoip2.City{}
	city.Country.IsoCode = "DE"
	city.Country.Names = map[string]string{"en": "Germany"}
	city.City.Names = map[string]string{"en": "Berlin"}
	city.Location.Latitude = 52.52
	city.Location.Longitude = 13.405
	city.Location.TimeZone = "Europe/Berlin"
	return city
}

func TestMaxMindResolver_Resolve(t *testing.T) {
	t.Run("CachesHits", func(t *testing.T) {
		reader := &fakeCityReader{cities: map[string]*geoip2.City{"203.0.113.7": berlin()}}
		logger, _ := test.NewNullLogger()
		resolver := newMaxMindResolver(reader, logger)

		for i := 0; i < 2; i++ {
			loc, ok := resolver.Resolve("203.0.113.7")
			require.True(t, ok)
			assert.Equal(t, models.GeoLocation{
				Country:     "Germany",
				CountryCode: "DE",
				City:        "Berlin",
				Latitude:    52.52,
				Longitude:   13.405,
				Timezone:    "Europe/Berlin",
			}, loc)
		}
		assert.Equal(t, []string{"203.0.113.7"}, reader.calls)
	})

	t.Run("CachesMisses", func(t *testing.T) {
		reader := &fakeCityReader{}
		logger, _ := test.NewNullLogger()
		resolver := newMaxMindResolver(reader, logger)

		for i := 0; i < 3; i++ {
			_, ok := resolver.Resolve("198.51.100.4")
			assert.False(t, ok)
		}
		assert.Len(t, reader.calls, 1)
	})

	t.Run("LookupError", func(t *testing.T) {
		reader := &fakeCityReader{err: errors.New("corrupt database")}
		logger, hook := test.NewNullLogger()
		resolver := newMaxMindResolver(reader, logger)

		_, ok := resolver.Resolve("198.51.100.4")
		assert.False(t, ok)
		_, ok = resolver.Resolve("198.51.100.4")
		assert.False(t, ok)

		assert.Len(t, reader.calls, 1)
		require.Len(t, hook.AllEntries(), 1)
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, "198.51.100.4", hook.LastEntry().Data["ip"])
	})

	t.Run("UnparseableAddress", func(t *testing.T) {
		reader := &fakeCityReader{}
		logger, _ := test.NewNullLogger()
		resolver := newMaxMindResolver(reader, logger)

		_, ok := resolver.Resolve("not-an-ip")
		assert.False(t, ok)
		assert.Empty(t, reader.calls)
	})

	t.Run("Close", func(t *testing.T) {
		reader := &fakeCityReader{}
		logger, _ := test.NewNullLogger()
		require.NoError(t, newMaxMindResolver(reader, logger).Close())
		assert.True(t, reader.closed)
	})
}

func TestLocatable(t *testing.T) {
	for _, ip := range []string{"", "127.0.0.1", "127.0.0.2", "::1", "localhost", "unknown"} {
		assert.False(t, Locatable(ip), ip)
	}
	for _, ip := range []string{"203.0.113.7", "2001:db8::1"} {
		assert.True(t, Locatable(ip), ip)
	}
}
