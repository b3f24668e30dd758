package models

// DisputedArea is static reference geometry (contested zones) maintained
// outside the ingestion pipeline. This service only reads it.
type DisputedArea struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:text;not null"`
	Geom string `gorm:"type:geometry(MultiPolygon,4326)"`
}

func (DisputedArea) TableName() string {
	return "disputed_areas"
}
