package models

// EarthRadiusKm converts a distance into the angular radius used by $centerSphere.
const EarthRadiusKm = 6378.1

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type"        json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewPoint(lon, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Coordinates is the request-side shape of a location.
type Coordinates struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude"  validate:"required,gte=-90,lte=90"`
}

func (c Coordinates) Validate() error {
	return validateStruct(c)
}

func (c Coordinates) Point() GeoPoint {
	var lon, lat float64
	if c.Longitude != nil {
		lon = *c.Longitude
	}
	if c.Latitude != nil {
		lat = *c.Latitude
	}
	return NewPoint(lon, lat)
}
