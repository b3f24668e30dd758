package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"conflictwatch/internal/repository"
)

// TweetCollection renders geolocated tweets as a GeoJSON FeatureCollection,
// every stored attribute carried as a feature property. An empty input still
// produces a valid collection with an empty features array.
func TweetCollection(rows []repository.GeoTweet) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range rows {
		row := &rows[i]
		f := geojson.NewFeature(orb.Point{row.Lon, row.Lat})
		f.Properties = geojson.Properties{
			"id":             row.ID,
			"tweet_id":       row.TweetID,
			"url":            row.URL,
			"author":         row.Author,
			"date_published": row.DatePublished,
			"body":           row.Body,
			"accuracy":       row.Accuracy,
			"importance":     row.Importance,
			"typology":       row.Typology,
		}
		fc.Append(f)
	}
	return fc
}

// DisputedAreaCollection wraps reference polygons (already GeoJSON-encoded by
// PostGIS) into a FeatureCollection.
func DisputedAreaCollection(rows []repository.DisputedAreaRow) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for i := range rows {
		row := &rows[i]
		g, err := geojson.UnmarshalGeometry([]byte(row.Geometry))
		if err != nil {
			return nil, fmt.Errorf("export: area %d geometry: %w", row.ID, err)
		}
		f := geojson.NewFeature(g.Geometry())
		f.Properties = geojson.Properties{
			"id":   row.ID,
			"name": row.Name,
		}
		fc.Append(f)
	}
	return fc, nil
}
