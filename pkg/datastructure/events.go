package datastructure

import "time"

type ArrivalEvent struct {
	waypoint           Waypoint
	isFinalDestination bool
}

func NewArrivalEvent(waypoint Waypoint, isFinalDestination bool) ArrivalEvent {
	return ArrivalEvent{waypoint: waypoint, isFinalDestination: isFinalDestination}
}

func (e ArrivalEvent) GetWaypoint() Waypoint {
	return e.waypoint
}

func (e ArrivalEvent) IsFinalDestination() bool {
	return e.isFinalDestination
}

type RouteChangedEvent struct {
	distanceMeters     float64
	durationSeconds    float64
	remainingWaypoints int
}

func NewRouteChangedEvent(distanceMeters, durationSeconds float64, remainingWaypoints int) RouteChangedEvent {
	return RouteChangedEvent{
		distanceMeters:     distanceMeters,
		durationSeconds:    durationSeconds,
		remainingWaypoints: remainingWaypoints,
	}
}

func (e RouteChangedEvent) GetDistanceMeters() float64 {
	return e.distanceMeters
}

func (e RouteChangedEvent) GetDurationSeconds() float64 {
	return e.durationSeconds
}

func (e RouteChangedEvent) GetRemainingWaypoints() int {
	return e.remainingWaypoints
}

type AdvisoryKind string

const (
	ADVISORY_INFO             AdvisoryKind = "info"
	ADVISORY_ERROR            AdvisoryKind = "error"
	ADVISORY_GUIDANCE_STARTED AdvisoryKind = "guidance_started"
	ADVISORY_ARRIVAL          AdvisoryKind = "arrival"
	ADVISORY_ROUTE_CHANGED    AdvisoryKind = "route_changed"
)

// Advisory is a user visible message. It never implies the process should stop.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Message string       `json:"message"`
	Status  string       `json:"status,omitempty"`
	Time    time.Time    `json:"time"`
}

func NewAdvisory(kind AdvisoryKind, message string) Advisory {
	return Advisory{Kind: kind, Message: message, Time: time.Now()}
}

// SessionRecord is the journal entry of one route submission. Submission ids restart at 1
// in every session.
type SessionRecord struct {
	SessionID    uint64    `json:"session_id"`
	SubmissionID uint64    `json:"submission_id"`
	Kind         string    `json:"kind"`
	Waypoints    []string  `json:"waypoints"`
	Status       string    `json:"status,omitempty"`
	Diagnostic   string    `json:"diagnostic,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	ResolvedAt   time.Time `json:"resolved_at,omitempty"`
}

func (r SessionRecord) IsResolved() bool {
	return !r.ResolvedAt.IsZero()
}
