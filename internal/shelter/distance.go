package shelter

import "math"

// EarthRadiusKm 球面地球半径
const EarthRadiusKm = 6371.0

// Haversine 两点间大圆距离（千米）
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance 是 Haversine 的 Position 版本
func Distance(a, b Position) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}
