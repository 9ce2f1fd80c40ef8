package planner

import "fmt"

// TripLeg is one continuous ride on a single route between two stops
type TripLeg struct {
	RouteID      string `json:"routeId"`
	RouteName    string `json:"routeName"`
	FromStopID   string `json:"fromStopId"`
	FromStopName string `json:"fromStopName"`
	ToStopID     string `json:"toStopId"`
	ToStopName   string `json:"toStopName"`
	IsTransfer   bool   `json:"isTransfer"` // true only on the first leg of a two-leg plan
}

// TripPlan is an ordered itinerary of one or two legs.
// Plans are superseded on regeneration, never mutated.
type TripPlan struct {
	Legs          []TripLeg `json:"legs"`
	TotalDistance float64   `json:"totalDistance"` // meters
	HasTransfer   bool      `json:"hasTransfer"`
	Warnings      []string  `json:"warnings"`
	MissingShapes bool      `json:"missingShapes"` // degraded best-effort plan
}

// PlanError is a typed planning failure. Recoverable failures come from data
// that may still be loading and can be retried with the same input; the rest
// need the caller to change the request.
type PlanError struct {
	Message     string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

func (e *PlanError) Error() string {
	return e.Message
}

func recoverable(format string, args ...any) *PlanError {
	return &PlanError{Message: fmt.Sprintf(format, args...), Recoverable: true}
}

func fatal(format string, args ...any) *PlanError {
	return &PlanError{Message: fmt.Sprintf(format, args...), Recoverable: false}
}
