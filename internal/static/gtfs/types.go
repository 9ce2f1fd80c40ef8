package gtfs

// Data holds the parts of a GTFS feed the catalog needs
type Data struct {
	Routes    []Route
	Stops     []Stop
	Trips     []Trip
	StopTimes []StopTime
}

// Route represents a route from routes.txt
type Route struct {
	RouteID        string
	RouteShortName string
	RouteLongName  string
	RouteType      int
}

// Location types from stops.txt
const (
	LocationStop     = 0
	LocationStation  = 1
	LocationEntrance = 2
)

// Stop represents a stop from stops.txt. Coordinates are nil when blank.
type Stop struct {
	StopID        string
	StopName      string
	StopLat       *float64
	StopLon       *float64
	LocationType  int
	ParentStation string
}

// Trip represents a trip from trips.txt
type Trip struct {
	RouteID   string
	ServiceID string
	TripID    string
}

// StopTime represents a stop time from stop_times.txt
type StopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int
}
