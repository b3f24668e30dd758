package geo

import (
	"fmt"

	"conflictwatch/internal/extract"
	"conflictwatch/internal/models"
)

// Resolution is the geolocation outcome for one extracted event. Accuracy and
// WKT are nil together: a tweet either gets a point with a confidence tier or
// neither.
type Resolution struct {
	Method   string
	Accuracy *string
	WKT      *string
}

// Resolve derives geometry and confidence tier from a validated extraction.
// The confidence tier is coupled to the method, not to the model's own
// confidence hint: an explicitly named place is High, a representative point
// for a broad area is Medium, anything else degrades to unknown. A claimed
// explicit or inferred location without usable coordinates also degrades to
// unknown rather than fabricating a point.
func Resolve(ev extract.Event) Resolution {
	hasPoint := ev.Latitude != nil && ev.Longitude != nil

	switch ev.LocationType {
	case extract.LocationExplicit:
		if hasPoint {
			return located(models.MethodExplicit, models.AccuracyHigh, *ev.Longitude, *ev.Latitude)
		}
	case extract.LocationInferred:
		if hasPoint {
			return located(models.MethodInferred, models.AccuracyMedium, *ev.Longitude, *ev.Latitude)
		}
	}
	return Resolution{Method: models.MethodUnknown}
}

func located(method, accuracy string, lon, lat float64) Resolution {
	wkt := fmt.Sprintf("POINT (%v %v)", lon, lat)
	return Resolution{
		Method:   method,
		Accuracy: &accuracy,
		WKT:      &wkt,
	}
}
