package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/femmynice-collab/auntie-jummys-shop/internal/geo"
)

const (
	earthRadiusMiles = 3958.8

	// Distance reported when either endpoint cannot be resolved. It sits
	// beyond every configured tier so the fee degrades to zero instead of
	// guessing.
	unresolvedDistanceMiles = 9999.0
)

// FeeTier charges Fee for distances up to and including MaxMiles.
type FeeTier struct {
	MaxMiles float64
	Fee      decimal.Decimal
}

// ParseFeeTiers reads a "maxMiles:fee,maxMiles:fee,..." string such as
// "5:3,10:5,999:8". A single malformed entry invalidates the whole spec, so a
// typo degrades delivery to free rather than charging from a half-read table.
// Tiers come back sorted by MaxMiles ascending.
func ParseFeeTiers(raw string) ([]FeeTier, error) {
	var tiers []FeeTier
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		miles, fee, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("fee tier %q: missing ':'", part)
		}
		maxMiles, err := strconv.ParseFloat(strings.TrimSpace(miles), 64)
		if err != nil {
			return nil, fmt.Errorf("fee tier %q: %w", part, err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(fee))
		if err != nil {
			return nil, fmt.Errorf("fee tier %q: %w", part, err)
		}
		tiers = append(tiers, FeeTier{MaxMiles: maxMiles, Fee: amount})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MaxMiles < tiers[j].MaxMiles })
	return tiers, nil
}

// GeoFeeCalculator prices delivery by straight-line distance between the
// store's ZIP centroid and the customer's.
type GeoFeeCalculator struct {
	resolver geo.Resolver
	storeZip string
	tiers    []FeeTier
	logger   *slog.Logger
}

func NewGeoFeeCalculator(resolver geo.Resolver, storeZip string, tiers []FeeTier, logger *slog.Logger) *GeoFeeCalculator {
	return &GeoFeeCalculator{
		resolver: resolver,
		storeZip: storeZip,
		tiers:    tiers,
		logger:   logger,
	}
}

// Fee returns the delivery fee for an order shipped to zip. It never fails:
// when either ZIP cannot be resolved the distance defaults past every tier
// and the fee comes back zero.
func (c *GeoFeeCalculator) Fee(ctx context.Context, zip string) decimal.Decimal {
	distance := c.distanceMiles(ctx, zip)
	for _, tier := range c.tiers {
		if distance <= tier.MaxMiles {
			return tier.Fee.Round(2)
		}
	}
	return decimal.Zero
}

// DistanceMiles exposes the computed distance for diagnostics endpoints.
func (c *GeoFeeCalculator) DistanceMiles(ctx context.Context, zip string) float64 {
	return c.distanceMiles(ctx, zip)
}

func (c *GeoFeeCalculator) distanceMiles(ctx context.Context, zip string) float64 {
	origin, err := c.resolver.Resolve(ctx, c.storeZip)
	if err != nil {
		c.logger.Warn("failed to resolve store zip", "zip", c.storeZip, "error", err)
		return unresolvedDistanceMiles
	}
	dest, err := c.resolver.Resolve(ctx, zip)
	if err != nil {
		c.logger.Warn("failed to resolve customer zip", "zip", zip, "error", err)
		return unresolvedDistanceMiles
	}
	return haversineMiles(origin, dest)
}

func haversineMiles(a, b geo.Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMiles * 2 * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// FeeTiersString renders tiers back into the config format, handy for
// startup logs.
func FeeTiersString(tiers []FeeTier) string {
	parts := make([]string, 0, len(tiers))
	for _, t := range tiers {
		parts = append(parts, fmt.Sprintf("%g:%s", t.MaxMiles, t.Fee))
	}
	return strings.Join(parts, ",")
}
