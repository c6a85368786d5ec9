// Package geo resolves postal codes to approximate centroids for the tiered
// delivery-fee calculation. Resolution failures are expected traffic and must
// degrade, never block a checkout.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Point is a postal-code centroid.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

var ErrNotFound = errors.New("postal code not found")

// Resolver resolves a postal code to its centroid.
type Resolver interface {
	Resolve(ctx context.Context, zip string) (Point, error)
}

// HTTPResolver queries a zippopotam-style geocoding endpoint
// (GET {base}/{country}/{zip} returning a places list with string
// latitude/longitude fields).
type HTTPResolver struct {
	baseURL string
	country string
	client  *http.Client
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		country: "us",
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type placesResponse struct {
	Places []struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, zip string) (Point, error) {
	url := fmt.Sprintf("%s/%s/%s", r.baseURL, r.country, zip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Point{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode %s: %w", zip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Point{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocode %s: unexpected status %d", zip, resp.StatusCode)
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(body.Places) == 0 {
		return Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(body.Places[0].Latitude, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(body.Places[0].Longitude, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	return Point{Lat: lat, Lon: lon}, nil
}
