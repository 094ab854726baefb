package routetoken

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
)

const (
	tokenVersion = 1

	// upper bound of a decompressed token, protects Decode from bzip2 bombs.
	maxPayloadBytes = 1 << 20
)

var (
	ErrMalformedToken   = errors.New("malformed route token")
	ErrWaypointMismatch = errors.New("route token was computed for a different waypoint sequence")
)

// Leg is one computed leg between consecutive waypoints.
type Leg struct {
	Polyline        string  `json:"path"`
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"eta"`
}

// Payload is the content of a route token.
type Payload struct {
	Version     int           `json:"v"`
	Fingerprint string        `json:"fp"`
	TravelMode  da.TravelMode `json:"mode"`
	Legs        []Leg         `json:"legs"`
}

func NewPayload(waypoints []da.Waypoint, mode da.TravelMode, legs []Leg) Payload {
	return Payload{
		Version:     tokenVersion,
		Fingerprint: Fingerprint(waypoints),
		TravelMode:  mode,
		Legs:        append([]Leg(nil), legs...),
	}
}

func (p Payload) TotalDistanceMeters() float64 {
	total := 0.0
	for _, l := range p.Legs {
		total += l.DistanceMeters
	}
	return total
}

func (p Payload) TotalDurationSeconds() float64 {
	total := 0.0
	for _, l := range p.Legs {
		total += l.DurationSeconds
	}
	return total
}

// Fingerprint identifies an ordered waypoint sequence. Titles and routing hints are not part
// of it.
func Fingerprint(waypoints []da.Waypoint) string {
	keys := make([]string, len(waypoints))
	for i, w := range waypoints {
		keys[i] = w.Key()
	}
	sum := sha256.Sum256([]byte(strings.Join(keys, "|")))
	return hex.EncodeToString(sum[:16])
}

// Encode serializes p into an opaque url safe token: base64url(bzip2(json)).
func Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal route token: %w", err)
	}

	var buf bytes.Buffer
	bz, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return "", err
	}
	if _, err := bz.Write(raw); err != nil {
		return "", err
	}
	if err := bz.Close(); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

func Decode(token string) (Payload, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(compressed) == 0 {
		return Payload{}, ErrMalformedToken
	}

	bz, err := bzip2.NewReader(bytes.NewReader(compressed), nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	defer bz.Close()

	raw, err := io.ReadAll(io.LimitReader(bz, maxPayloadBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(raw) > maxPayloadBytes {
		return Payload{}, fmt.Errorf("%w: payload too large", ErrMalformedToken)
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if p.Version != tokenVersion || p.Fingerprint == "" || len(p.Legs) == 0 {
		return Payload{}, ErrMalformedToken
	}
	return p, nil
}

// DecodeFor decodes token and checks that it belongs to waypoints. The number of legs must
// match the waypoint count: the first leg starts at the user location.
func DecodeFor(token string, waypoints []da.Waypoint) (Payload, error) {
	p, err := Decode(token)
	if err != nil {
		return Payload{}, err
	}
	if p.Fingerprint != Fingerprint(waypoints) || len(p.Legs) != len(waypoints) {
		return Payload{}, ErrWaypointMismatch
	}
	return p, nil
}
