package tasks

// TaskType identifies what the rider has to do
type TaskType string

const (
	TaskWalkToStop TaskType = "walk-to-stop"
	TaskBoard      TaskType = "board"
	TaskRide       TaskType = "ride"
	TaskTransfer   TaskType = "transfer"
)

// XP rewards per task type
const (
	XPWalkToStop = 10
	XPBoard      = 20
	XPRide       = 30
	XPTransfer   = 50
)

// Geofence radii in meters. Boarding is wider to absorb vehicle GPS noise.
const (
	WalkRadiusMeters     = 100.0
	BoardRadiusMeters    = 150.0
	RideRadiusMeters     = 100.0
	TransferRadiusMeters = 100.0
)

// Board completion thresholds
const (
	BoardVehicleRadiusMeters = 150.0
	BoardDepartureWindowSecs = 120.0
)

// GeoFence is a circular completion region
type GeoFence struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters"`
}

// GameTask is one independently completable step of a trip.
// Completed is the only field changed after creation.
type GameTask struct {
	ID          string    `json:"id"`
	Type        TaskType  `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StopID      string    `json:"stopId,omitempty"`
	StopName    string    `json:"stopName,omitempty"`
	RouteID     string    `json:"routeId,omitempty"`
	RouteName   string    `json:"routeName,omitempty"`
	GeoFence    *GeoFence `json:"geoFence"`
	Completed   bool      `json:"completed"`
	XPReward    int       `json:"xpReward"`
	LegIndex    int       `json:"legIndex"`
}

func (t TaskType) valid() bool {
	switch t {
	case TaskWalkToStop, TaskBoard, TaskRide, TaskTransfer:
		return true
	}
	return false
}
