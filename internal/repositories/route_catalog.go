package repositories

import (
	"fmt"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

// DefaultRoutes is the route table of the Chocó service, in display order.
func DefaultRoutes() []models.Route {
	r := func(origin, destination string, fare int64, times ...string) models.Route {
		return models.Route{
			Key:            models.RouteKey(origin, destination),
			Origin:         origin,
			Destination:    destination,
			Fare:           fare,
			DepartureTimes: times,
		}
	}
	return []models.Route{
		r("quibdó", "istmina", 30000, "6:00 a.m.", "10:00 a.m.", "4:00 p.m."),
		r("quibdó", "bahía solano", 90000, "7:00 a.m.", "2:00 p.m."),
		r("quibdó", "medellín", 120000, "5:00 a.m.", "1:00 p.m."),
		r("quibdó", "acandí", 95000, "6:30 a.m.", "12:00 p.m."),
		r("quibdó", "tadó", 25000, "8:00 a.m.", "2:30 p.m.", "6:00 p.m."),
		r("quibdó", "belén de bajirá", 40000, "5:30 a.m.", "12:30 p.m."),
		r("medellín", "quibdó", 120000, "6:00 a.m.", "2:00 p.m."),
	}
}

// RouteCatalog is the read-only route reference data.
type RouteCatalog struct {
	routes []models.Route
	byKey  map[string]int
}

// NewRouteCatalog validates routes and freezes their order.
func NewRouteCatalog(routes []models.Route) (*RouteCatalog, error) {
	c := &RouteCatalog{byKey: make(map[string]int, len(routes))}
	for _, rt := range routes {
		if rt.Key == "" {
			rt.Key = models.RouteKey(rt.Origin, rt.Destination)
		}
		if rt.Fare <= 0 {
			return nil, domain.ValidationError{Field: "fare", Msg: fmt.Sprintf("route %q must have a positive fare", rt.Key)}
		}
		if len(rt.DepartureTimes) == 0 {
			return nil, domain.ValidationError{Field: "departure_times", Msg: fmt.Sprintf("route %q has no departure times", rt.Key)}
		}
		if _, dup := c.byKey[rt.Key]; dup {
			return nil, domain.ValidationError{Field: "key", Msg: fmt.Sprintf("duplicate route %q", rt.Key)}
		}
		rt.DepartureTimes = append([]string(nil), rt.DepartureTimes...)
		c.byKey[rt.Key] = len(c.routes)
		c.routes = append(c.routes, rt)
	}
	return c, nil
}

// ListRoutes returns the routes in catalog order.
func (c *RouteCatalog) ListRoutes() []models.Route {
	out := make([]models.Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// GetRoute looks a route up by its "origin → destination" key.
func (c *RouteCatalog) GetRoute(key string) (models.Route, error) {
	i, ok := c.byKey[key]
	if !ok {
		return models.Route{}, domain.NotFoundError{Resource: "route " + key}
	}
	return c.routes[i], nil
}
