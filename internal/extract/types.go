package extract

import (
	"errors"
	"fmt"
)

// Location type values the model may return. "unknown" means no geometry.
const (
	LocationExplicit = "explicit"
	LocationInferred = "inferred"
	LocationUnknown  = "unknown"
)

// Confidence hints the model attaches to its own geolocation.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Typology values. Anything else is malformed output.
const (
	TypologyMil   = "MIL"
	TypologyOther = "OTHER"
)

// Event is one extracted event as returned by the model. Pointer fields
// distinguish "absent" from zero values: a missing importance must never be
// mistaken for importance 1.
type Event struct {
	Summary      string   `json:"event_summary"`
	Typology     string   `json:"typology"`
	Importance   *int     `json:"strategic_importance"`
	MainLocation *string  `json:"main_location"`
	LocationType string   `json:"location_type"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Confidence   string   `json:"confidence"`
}

// Extraction is the full model response. An empty Events list is a valid
// outcome: the tweet describes no locatable event.
type Extraction struct {
	Events []Event `json:"events"`
}

var errInvalidField = errors.New("extract: field outside closed taxonomy")

// Validate checks every field against the closed taxonomy. A field that fails
// validation is treated as missing, which fails the whole attempt; values are
// never coerced into defaults.
func (e *Event) Validate() error {
	switch e.Typology {
	case TypologyMil, TypologyOther:
	default:
		return fmt.Errorf("%w: typology %q", errInvalidField, e.Typology)
	}
	if e.Importance == nil {
		return fmt.Errorf("%w: strategic_importance missing", errInvalidField)
	}
	if *e.Importance < 1 || *e.Importance > 5 {
		return fmt.Errorf("%w: strategic_importance %d", errInvalidField, *e.Importance)
	}
	switch e.LocationType {
	case LocationExplicit, LocationInferred, LocationUnknown:
	default:
		return fmt.Errorf("%w: location_type %q", errInvalidField, e.LocationType)
	}
	switch e.Confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, "":
	default:
		return fmt.Errorf("%w: confidence %q", errInvalidField, e.Confidence)
	}
	if e.Latitude != nil && (*e.Latitude < -90 || *e.Latitude > 90) {
		return fmt.Errorf("%w: latitude %v", errInvalidField, *e.Latitude)
	}
	if e.Longitude != nil && (*e.Longitude < -180 || *e.Longitude > 180) {
		return fmt.Errorf("%w: longitude %v", errInvalidField, *e.Longitude)
	}
	return nil
}

func (x *Extraction) Validate() error {
	for i := range x.Events {
		if err := x.Events[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
