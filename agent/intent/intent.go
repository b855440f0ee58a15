// Package intent classifies raw user queries and extracts route endpoints.
// This is a best-effort textual heuristic, not a parser: ambiguous or
// multi-destination queries simply produce a possibly-wrong split.
package intent

import (
	"fmt"
	"strings"

	statex "github.com/wayfarer-ai/wayfinder/agent/state"
)

type Kind string

const (
	// LocationQuery asks only "where am I" — routing steps short-circuit.
	LocationQuery Kind = "location_query"
	// DirectionsQuery asks for a route to somewhere.
	DirectionsQuery Kind = "directions_query"
)

// The fixed set of phrasings treated as location-only queries.
var locationPhrasings = map[string]struct{}{
	"where am i":  {},
	"where am i?": {},
	"my location": {},
}

// Classify inspects the raw query text and yields its intent.
func Classify(query string) Kind {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if _, ok := locationPhrasings[normalized]; ok {
		return LocationQuery
	}
	return DirectionsQuery
}

// Endpoints extracts a best-effort (origin, destination) pair from the query.
// The split point is the LEFTMOST " to " occurrence; queries with several
// " to " substrings keep that behavior deliberately, since downstream output
// is observable. Without a " to ", the resolved location becomes the origin
// and the query minus filler words becomes the destination.
func Endpoints(query string, loc *statex.LocationInfo) (origin, destination string) {
	q := strings.ToLower(strings.TrimSpace(query))

	if parts := strings.Split(q, " to "); len(parts) > 1 {
		origin = strings.TrimSpace(strings.TrimPrefix(parts[0], "directions from"))
		origin = strings.TrimSpace(strings.TrimPrefix(origin, "directions"))
		origin = strings.TrimSpace(strings.TrimPrefix(origin, "from"))
		// parts[1], not the whole remainder: with several " to "
		// occurrences only the segment after the first separator counts.
		destination = strings.TrimSpace(parts[1])
		if origin == "" {
			origin = currentPlace(loc)
		}
		return origin, destination
	}

	origin = currentPlace(loc)
	destination = strings.TrimSpace(strings.TrimPrefix(q, "directions to"))
	destination = strings.TrimSpace(strings.TrimPrefix(destination, "directions"))
	destination = strings.TrimSpace(strings.TrimPrefix(destination, "to"))
	return origin, destination
}

func currentPlace(loc *statex.LocationInfo) string {
	if loc == nil {
		return "Unknown, Unknown"
	}
	return fmt.Sprintf("%s, %s", loc.City, loc.Region)
}
