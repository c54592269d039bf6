package proximity

import "math"

const (
	earthRadiusM = 6371000
	feetPerMetre = 3.28084

	// EarthRadiusFt is the mean Earth radius used for all separations.
	EarthRadiusFt = earthRadiusM * feetPerMetre

	FeetPerNM = 6076.12
)

func radians(d float64) float64 { return d / 180 * math.Pi }

// DistanceFt returns the great-circle distance in feet between two
// [lon, lat] coordinates.
func DistanceFt(a, b [2]float64) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	lat1, lon1 := radians(a[1]), radians(a[0])
	lat2, lon2 := radians(b[1]), radians(b[0])
	dlat, dlon := lat2-lat1, lon2-lon1

	x := sqr(math.Sin(dlat/2)) + math.Cos(lat1)*math.Cos(lat2)*sqr(math.Sin(dlon/2))
	c := 2 * math.Atan2(math.Sqrt(x), math.Sqrt(1-x))
	return EarthRadiusFt * c
}

// toCartesian maps [lon, lat] onto a sphere of EarthRadiusFt. Straight-line
// distance between two mapped points grows monotonically with their
// great-circle distance, which lets the kd-tree prune in 3D.
func toCartesian(c [2]float64) [3]float64 {
	lon, lat := radians(c[0]), radians(c[1])
	return [3]float64{
		EarthRadiusFt * math.Cos(lat) * math.Cos(lon),
		EarthRadiusFt * math.Cos(lat) * math.Sin(lon),
		EarthRadiusFt * math.Sin(lat),
	}
}

// chordFt is the straight-line length of a great-circle arc of arcFt.
func chordFt(arcFt float64) float64 {
	half := arcFt / (2 * EarthRadiusFt)
	if half >= math.Pi/2 {
		return 2 * EarthRadiusFt
	}
	return 2 * EarthRadiusFt * math.Sin(half)
}

func sqr(v float64) float64 { return v * v }
