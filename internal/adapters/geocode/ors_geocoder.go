package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"routeflow/internal/domain"
	"routeflow/internal/platform/metrics"
	"routeflow/internal/platform/obs"
	"routeflow/internal/ports"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoResults = fmt.Errorf("no geocode results: %w", ports.ErrAddressNotFound)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder using OpenRouteService (/geocode/search).
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - Bounded concurrent lookups with retry/backoff
//
// The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	country     string
	cache       ports.GeocodeCache
	log         *zap.Logger
	concurrency int
	maxAttempts int
	backoff     time.Duration
}

type ORSOption func(*ORSGeocoder)

// WithBaseURL points the geocoder at a different ORS deployment.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithCountry restricts results to an ISO country code. Empty disables the filter.
func WithCountry(code string) ORSOption {
	return func(o *ORSGeocoder) { o.country = code }
}

func WithRetry(maxAttempts int, backoff time.Duration) ORSOption {
	return func(o *ORSGeocoder) {
		o.maxAttempts = maxAttempts
		o.backoff = backoff
	}
}

func NewORSGeocoder(
	apiKey string,
	cache ports.GeocodeCache,
	log *zap.Logger,
	opts ...ORSOption,
) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	g := &ORSGeocoder{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     "https://api.openrouteservice.org",
		cache:       cache,
		log:         log.Named("ors"),
		concurrency: 4,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxAttempts < 1 {
		g.maxAttempts = 1
	}

	return g, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GeocodeMany resolves addresses through the cache first and ORS second.
// The result is keyed by the addresses exactly as given.
func (o *ORSGeocoder) GeocodeMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, o.log, "ors.GeocodeMany")(&err)

	if len(addresses) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	seen := make(map[string]struct{}, len(addresses))
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		n := normalize(a)
		if n == "" {
			return nil, errors.New("geocode: address must be non-empty")
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		uniq = append(uniq, n)
	}

	hits := make(map[string]domain.Coordinates)
	// Check persistent geocode cache before issuing external API calls.
	if o.cache != nil {
		hits, err = o.cache.GetMany(ctx, uniq)
		if err != nil {
			return nil, fmt.Errorf("ORS get geocode cache: %w", err)
		}
	}

	misses := make([]string, 0, len(uniq))
	for _, a := range uniq {
		if _, ok := hits[a]; !ok {
			misses = append(misses, a)
		}
	}
	metrics.CacheHits.WithLabelValues("geocode").Add(float64(len(uniq) - len(misses)))
	metrics.CacheMisses.WithLabelValues("geocode").Add(float64(len(misses)))

	fresh := make(map[string]domain.Coordinates, len(misses))
	if len(misses) > 0 {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.concurrency)

		for _, a := range misses {
			g.Go(func() error {
				c, err := o.search(gctx, a)
				if err != nil {
					return fmt.Errorf("geocode %q: %w", a, err)
				}
				mu.Lock()
				fresh[a] = c
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if o.cache != nil && len(fresh) > 0 {
		if err := o.cache.PutMany(ctx, fresh); err != nil {
			o.log.Warn("geocode cache write failed", zap.Error(err))
		}
	}

	out := make(map[string]domain.Coordinates, len(addresses))
	for _, a := range addresses {
		n := normalize(a)
		if c, ok := hits[n]; ok {
			out[a] = c
			continue
		}
		out[a] = fresh[n]
	}

	return out, nil
}

// search resolves a single normalized address.
func (o *ORSGeocoder) search(ctx context.Context, address string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", "1")
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, ErrNoResults
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	// ORS returns GeoJSON order: [lon, lat].
	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
