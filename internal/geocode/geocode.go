package geocode

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const geocodingURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Seoul City Hall, used whenever an address cannot be resolved.
var defaultCoordinates = Coordinates{Lat: 37.5665, Lng: 126.9780}

type Coordinates struct {
	Lat float64
	Lng float64
}

type Client struct {
	apiKey string
	http   *resty.Client
	logger *zap.SugaredLogger
}

func NewClient(apiKey string, logger *zap.SugaredLogger) *Client {
	return &Client{
		apiKey: apiKey,
		http:   resty.New().SetTimeout(5 * time.Second),
		logger: logger,
	}
}

type geocodingResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve turns a street address into coordinates via the Google
// Geocoding API. It never fails the enclosing operation: with no API
// key configured, or on any lookup error, it falls back to the default
// coordinates.
func (c *Client) Resolve(ctx context.Context, address string) Coordinates {
	if c.apiKey == "" {
		c.logger.Warnw("geocoding api key not configured, using default coordinates")
		return defaultCoordinates
	}

	var out geocodingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address":  address,
			"key":      c.apiKey,
			"language": "ko",
			"region":   "kr",
		}).
		SetResult(&out).
		Get(geocodingURL)
	if err != nil {
		c.logger.Errorw("geocoding request failed", "address", address, "error", err)
		return defaultCoordinates
	}
	if resp.StatusCode() != 200 || out.Status != "OK" || len(out.Results) == 0 {
		c.logger.Warnw("no geocoding result", "address", address, "status", out.Status)
		return defaultCoordinates
	}

	loc := out.Results[0].Geometry.Location
	c.logger.Infow("geocoded address",
		"address", address,
		"formatted", out.Results[0].FormattedAddress,
		"lat", loc.Lat,
		"lng", loc.Lng,
	)
	return Coordinates{Lat: loc.Lat, Lng: loc.Lng}
}
