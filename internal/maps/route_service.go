// README: Google Maps driving distance used to quote prospective trips.
package maps

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"googlemaps.github.io/maps"
)

var ErrNoRoute = errors.New("no route found")

var metersPerMile = decimal.RequireFromString("1609.344")

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DrivingMiles returns the driving distance of the first route between two
// addresses, in miles rounded to hundredths.
func (s *RouteService) DrivingMiles(ctx context.Context, origin, destination string) (decimal.Decimal, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Units:       maps.UnitsImperial,
		Region:      "us",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return decimal.Zero, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return decimal.Zero, ErrNoRoute
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return MetersToMiles(meters), nil
}

func MetersToMiles(meters int) decimal.Decimal {
	return decimal.NewFromInt(int64(meters)).Div(metersPerMile).Round(2)
}
