package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ErrNoAddress indicates the geocoder has no address for the coordinates.
var ErrNoAddress = errors.New("no address for coordinates")

// Client resolves coordinates into a postal location.
type Client interface {
	Reverse(ctx context.Context, at model.Coordinates) (*model.Location, error)
}

// HTTPClient queries a Nominatim compatible reverse endpoint through a circuit breaker.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*model.Location]
	logger     *slog.Logger
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address *struct {
		Road          string `json:"road"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

// NewHTTPClient creates geocoder client. The breaker opens after five consecutive failures.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse geocoder url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("geocoder url must be absolute")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	c := &HTTPClient{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*model.Location](gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// an unknown location is an answer, not an outage
			return err == nil || errors.Is(err, ErrNoAddress)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// Reverse looks up the location for the coordinates.
func (c *HTTPClient) Reverse(ctx context.Context, at model.Coordinates) (*model.Location, error) {
	return c.breaker.Execute(func() (*model.Location, error) {
		return c.reverse(ctx, at)
	})
}

func (c *HTTPClient) reverse(ctx context.Context, at model.Coordinates) (*model.Location, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join("/", endpoint.Path, "reverse")
	q := endpoint.Query()
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "storefront-checkout")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("geocoder request failed", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("geocoder error: %s", resp.Status)
	}

	var data reverseResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.Error != "" || data.Address == nil {
		return nil, ErrNoAddress
	}

	a := data.Address
	return &model.Location{
		Street:  firstNonEmpty(a.Road, a.Neighbourhood),
		City:    firstNonEmpty(a.City, a.Town, a.Village, a.Suburb),
		State:   a.State,
		Pincode: a.Postcode,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
