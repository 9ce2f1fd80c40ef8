package transit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Document is a JSON:API top-level envelope
type Document struct {
	Data json.RawMessage `json:"data"`
}

// Resource is a JSON:API resource object
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Relationship holds linkage that may be a single identifier, a list, or null
type Relationship struct {
	Data json.RawMessage `json:"data"`
}

type identifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// IDs normalizes the relationship linkage into a list of ids
func (r Relationship) IDs() []string {
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '[' {
		var list []identifier
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		ids := make([]string, 0, len(list))
		for _, item := range list {
			if item.ID != "" {
				ids = append(ids, item.ID)
			}
		}
		return ids
	}

	var single identifier
	if err := json.Unmarshal(raw, &single); err != nil || single.ID == "" {
		return nil
	}
	return []string{single.ID}
}

func (r Resource) relatedIDs(names ...string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, name := range names {
		rel, ok := r.Relationships[name]
		if !ok {
			continue
		}
		for _, id := range rel.IDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (r Resource) relatedID(name string) string {
	if ids := r.relatedIDs(name); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// decodeResources accepts either a full document or a bare resource list
func decodeResources(payload []byte) ([]Resource, error) {
	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '{' {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		raw = bytes.TrimSpace(doc.Data)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return nil, nil
		}
		if raw[0] == '{' {
			var one Resource
			if err := json.Unmarshal(raw, &one); err != nil {
				return nil, fmt.Errorf("failed to decode resource: %w", err)
			}
			return []Resource{one}, nil
		}
	}

	var resources []Resource
	if err := json.Unmarshal(raw, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}
	return resources, nil
}

type stopAttributes struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// DecodeStops converts a JSON:API stop payload into Stops. Route membership
// from "route" or "routes", single or list, is normalized into RouteIDs.
// Records with invalid ids are skipped.
func DecodeStops(payload []byte) ([]Stop, error) {
	resources, err := decodeResources(payload)
	if err != nil {
		return nil, err
	}

	stops := make([]Stop, 0, len(resources))
	for _, res := range resources {
		if !ValidID(res.ID) {
			slog.Debug("skipping stop with invalid id", "id", res.ID)
			continue
		}
		var attrs stopAttributes
		if len(res.Attributes) > 0 {
			if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to decode stop %s attributes: %w", res.ID, err)
			}
		}
		stops = append(stops, Stop{
			ID:        res.ID,
			Name:      attrs.Name,
			Latitude:  attrs.Latitude,
			Longitude: attrs.Longitude,
			RouteIDs:  res.relatedIDs("route", "routes"),
		})
	}
	return stops, nil
}

type routeAttributes struct {
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
}

// DecodeRoutes converts a JSON:API route payload into Routes
func DecodeRoutes(payload []byte) ([]Route, error) {
	resources, err := decodeResources(payload)
	if err != nil {
		return nil, err
	}

	routes := make([]Route, 0, len(resources))
	for _, res := range resources {
		if !ValidID(res.ID) {
			continue
		}
		var attrs routeAttributes
		if len(res.Attributes) > 0 {
			if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to decode route %s attributes: %w", res.ID, err)
			}
		}
		routes = append(routes, Route{ID: res.ID, LongName: attrs.LongName, ShortName: attrs.ShortName})
	}
	return routes, nil
}

type vehicleAttributes struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// DecodeVehicles converts a JSON:API vehicle payload into Vehicles.
// Vehicles without a position or route are dropped.
func DecodeVehicles(payload []byte) ([]Vehicle, error) {
	resources, err := decodeResources(payload)
	if err != nil {
		return nil, err
	}

	vehicles := make([]Vehicle, 0, len(resources))
	for _, res := range resources {
		var attrs vehicleAttributes
		if len(res.Attributes) > 0 {
			if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to decode vehicle %s attributes: %w", res.ID, err)
			}
		}
		routeID := res.relatedID("route")
		if attrs.Latitude == nil || attrs.Longitude == nil || routeID == "" {
			continue
		}
		vehicles = append(vehicles, Vehicle{
			ID:        res.ID,
			RouteID:   routeID,
			Latitude:  *attrs.Latitude,
			Longitude: *attrs.Longitude,
		})
	}
	return vehicles, nil
}

type predictionAttributes struct {
	ArrivalTime   *string `json:"arrival_time"`
	DepartureTime *string `json:"departure_time"`
	Status        *string `json:"status"`
}

// DecodePredictions converts a JSON:API prediction payload into Predictions.
// Unparseable timestamps are treated as absent.
func DecodePredictions(payload []byte) ([]Prediction, error) {
	resources, err := decodeResources(payload)
	if err != nil {
		return nil, err
	}

	predictions := make([]Prediction, 0, len(resources))
	for _, res := range resources {
		var attrs predictionAttributes
		if len(res.Attributes) > 0 {
			if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to decode prediction %s attributes: %w", res.ID, err)
			}
		}
		p := Prediction{
			StopID:        res.relatedID("stop"),
			RouteID:       res.relatedID("route"),
			ArrivalTime:   parseTimestamp(attrs.ArrivalTime),
			DepartureTime: parseTimestamp(attrs.DepartureTime),
		}
		if attrs.Status != nil {
			p.Status = *attrs.Status
		}
		if p.StopID == "" || p.RouteID == "" {
			continue
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

func parseTimestamp(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
