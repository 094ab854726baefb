package datastructure

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrUnsupportedPlaceID = errors.New("unsupported place id")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrMissingLocation    = errors.New("waypoint has neither a coordinate nor a place id")
)

// MaxPlaceIDLength bounds Google style place ids.
const MaxPlaceIDLength = 1024

var (
	googlePlaceIDPattern = regexp.MustCompile(`^(ChIJ|Ei|Eh|Ek|Gh|GhIJ)[A-Za-z0-9_-]{12,}$`)
	osmPlaceIDPattern    = regexp.MustCompile(`^osm:(node|way):[1-9][0-9]{0,18}$`)
)

// IsSupportedPlaceID reports whether id is a place identifier the navigator can resolve:
// a Google style place id or an osm:node:<id> / osm:way:<id> reference.
func IsSupportedPlaceID(id string) bool {
	if osmPlaceIDPattern.MatchString(id) {
		return true
	}
	return len(id) <= MaxPlaceIDLength && googlePlaceIDPattern.MatchString(id)
}

const noHeading = -1

// Waypoint is a navigable location: either a coordinate or a place id. Only values built by
// WaypointBuilder are valid; the zero Waypoint is not.
type Waypoint struct {
	coordinate           Coordinate
	placeID              string
	title                string
	preferSameSideOfRoad bool
	preferredHeading     int
	valid                bool
}

func (w Waypoint) GetCoordinate() (Coordinate, bool) {
	return w.coordinate, w.valid && w.placeID == ""
}

func (w Waypoint) GetPlaceID() string {
	return w.placeID
}

func (w Waypoint) GetTitle() string {
	return w.title
}

func (w Waypoint) PreferSameSideOfRoad() bool {
	return w.preferSameSideOfRoad
}

func (w Waypoint) GetPreferredHeading() (int, bool) {
	return w.preferredHeading, w.preferredHeading != noHeading
}

func (w Waypoint) IsValid() bool {
	return w.valid
}

// Key identifies the location of the waypoint independent of its display metadata.
func (w Waypoint) Key() string {
	if w.placeID != "" {
		return "place:" + w.placeID
	}
	return "latlng:" + w.coordinate.String()
}

func (w Waypoint) String() string {
	if w.title != "" {
		return fmt.Sprintf("%s (%s)", w.title, w.Key())
	}
	return w.Key()
}

type waypointJSON struct {
	Lat                  *float64 `json:"lat,omitempty"`
	Lon                  *float64 `json:"lon,omitempty"`
	PlaceID              string   `json:"place_id,omitempty"`
	Title                string   `json:"title,omitempty"`
	PreferSameSideOfRoad bool     `json:"prefer_same_side_of_road,omitempty"`
	PreferredHeading     *int     `json:"preferred_heading,omitempty"`
}

func (w Waypoint) MarshalJSON() ([]byte, error) {
	out := waypointJSON{
		PlaceID:              w.placeID,
		Title:                w.title,
		PreferSameSideOfRoad: w.preferSameSideOfRoad,
	}
	if c, ok := w.GetCoordinate(); ok {
		out.Lat, out.Lon = &c.Lat, &c.Lon
	}
	if h, ok := w.GetPreferredHeading(); ok {
		out.PreferredHeading = &h
	}
	return json.Marshal(out)
}

// WaypointBuilder builds a Waypoint. The last location setter called wins.
type WaypointBuilder struct {
	coordinate           *Coordinate
	placeID              string
	title                string
	preferSameSideOfRoad bool
	preferredHeading     int
}

func NewWaypointBuilder() *WaypointBuilder {
	return &WaypointBuilder{preferredHeading: noHeading}
}

func (b *WaypointBuilder) SetLatLng(lat, lon float64) *WaypointBuilder {
	c := NewCoordinate(lat, lon)
	b.coordinate = &c
	b.placeID = ""
	return b
}

func (b *WaypointBuilder) SetPlaceID(placeID string) *WaypointBuilder {
	b.placeID = placeID
	b.coordinate = nil
	return b
}

func (b *WaypointBuilder) SetTitle(title string) *WaypointBuilder {
	b.title = title
	return b
}

func (b *WaypointBuilder) SetPreferSameSideOfRoad(prefer bool) *WaypointBuilder {
	b.preferSameSideOfRoad = prefer
	return b
}

// SetPreferredHeading sets the arrival heading in degrees [0, 360).
func (b *WaypointBuilder) SetPreferredHeading(heading int) *WaypointBuilder {
	b.preferredHeading = heading
	return b
}

func (b *WaypointBuilder) Build() (Waypoint, error) {
	w := Waypoint{
		title:                b.title,
		preferSameSideOfRoad: b.preferSameSideOfRoad,
		preferredHeading:     noHeading,
	}
	if b.preferredHeading != noHeading {
		if b.preferredHeading < 0 || b.preferredHeading >= 360 {
			return Waypoint{}, fmt.Errorf("preferred heading %d out of range [0, 360)", b.preferredHeading)
		}
		w.preferredHeading = b.preferredHeading
	}

	switch {
	case b.placeID != "":
		if !IsSupportedPlaceID(b.placeID) {
			return Waypoint{}, fmt.Errorf("%w: %q", ErrUnsupportedPlaceID, b.placeID)
		}
		w.placeID = b.placeID
	case b.coordinate != nil:
		if !b.coordinate.IsValid() {
			return Waypoint{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, b.coordinate)
		}
		w.coordinate = *b.coordinate
	default:
		return Waypoint{}, ErrMissingLocation
	}

	w.valid = true
	return w, nil
}

// NewLatLngWaypoint is a shorthand for a coordinate waypoint with a title.
func NewLatLngWaypoint(lat, lon float64, title string) (Waypoint, error) {
	return NewWaypointBuilder().SetLatLng(lat, lon).SetTitle(title).Build()
}

// NewPlaceWaypoint is a shorthand for a place id waypoint with a title.
func NewPlaceWaypoint(placeID, title string) (Waypoint, error) {
	return NewWaypointBuilder().SetPlaceID(placeID).SetTitle(title).Build()
}

// WithCoordinate returns a copy of a place waypoint resolved to c. Used by navigators once the
// place id has been looked up; the place id is kept so Key stays stable.
func (w Waypoint) WithCoordinate(c Coordinate) Waypoint {
	w.coordinate = c
	return w
}

// ResolvedCoordinate returns the coordinate of w, including one attached by WithCoordinate.
func (w Waypoint) ResolvedCoordinate() (Coordinate, bool) {
	if w.placeID == "" {
		return w.coordinate, w.valid
	}
	return w.coordinate, w.valid && w.coordinate != (Coordinate{})
}
