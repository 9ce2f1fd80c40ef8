package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// Parse reads a GTFS zip file and returns parsed data
func Parse(zipPath string) (*Data, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	return parseFiles(r.File)
}

// ParseReader reads a GTFS zip held in memory or any other ReaderAt
func ParseReader(ra io.ReaderAt, size int64) (*Data, error) {
	r, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	return parseFiles(r.File)
}

func parseFiles(zipFiles []*zip.File) (*Data, error) {
	files := make(map[string]*zip.File)
	for _, f := range zipFiles {
		files[f.Name] = f
	}

	for _, required := range []string{"routes.txt", "stops.txt"} {
		if _, ok := files[required]; !ok {
			return nil, fmt.Errorf("missing %s", required)
		}
	}

	data := &Data{}
	steps := []struct {
		name  string
		parse func(record []string, idx map[string]int)
	}{
		{"routes.txt", func(record []string, idx map[string]int) {
			routeType, _ := strconv.Atoi(getField(record, idx, "route_type"))
			data.Routes = append(data.Routes, Route{
				RouteID:        getField(record, idx, "route_id"),
				RouteShortName: getField(record, idx, "route_short_name"),
				RouteLongName:  getField(record, idx, "route_long_name"),
				RouteType:      routeType,
			})
		}},
		{"stops.txt", func(record []string, idx map[string]int) {
			locType, _ := strconv.Atoi(getField(record, idx, "location_type"))
			data.Stops = append(data.Stops, Stop{
				StopID:        getField(record, idx, "stop_id"),
				StopName:      getField(record, idx, "stop_name"),
				StopLat:       parseCoordinate(getField(record, idx, "stop_lat")),
				StopLon:       parseCoordinate(getField(record, idx, "stop_lon")),
				LocationType:  locType,
				ParentStation: getField(record, idx, "parent_station"),
			})
		}},
		{"trips.txt", func(record []string, idx map[string]int) {
			data.Trips = append(data.Trips, Trip{
				RouteID:   getField(record, idx, "route_id"),
				ServiceID: getField(record, idx, "service_id"),
				TripID:    getField(record, idx, "trip_id"),
			})
		}},
		{"stop_times.txt", func(record []string, idx map[string]int) {
			seq, _ := strconv.Atoi(getField(record, idx, "stop_sequence"))
			data.StopTimes = append(data.StopTimes, StopTime{
				TripID:        getField(record, idx, "trip_id"),
				ArrivalTime:   getField(record, idx, "arrival_time"),
				DepartureTime: getField(record, idx, "departure_time"),
				StopID:        getField(record, idx, "stop_id"),
				StopSequence:  seq,
			})
		}},
	}

	for _, step := range steps {
		f, ok := files[step.name]
		if !ok {
			continue
		}
		if err := readCSV(f, step.parse); err != nil {
			log.Printf("Warning: failed to parse %s: %v", step.name, err)
		}
	}

	log.Printf("GTFS parsed: %d routes, %d stops, %d trips, %d stop times",
		len(data.Routes), len(data.Stops), len(data.Trips), len(data.StopTimes))

	return data, nil
}

// readCSV calls fn for every well-formed record after the header
func readCSV(f *zip.File, fn func(record []string, idx map[string]int)) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return err
	}

	idx := makeIndex(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}
		fn(record, idx)
	}
}

func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseTimeToSeconds converts a GTFS HH:MM:SS time to seconds since
// service-day midnight. Hours may exceed 23. ok is false for blank or
// malformed values.
func ParseTimeToSeconds(timeStr string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total int
	for i, unit := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
