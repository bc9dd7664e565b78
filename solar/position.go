package solar

import (
	"math"
	"time"
)

// solarConstant is the mean solar irradiance at the top of the atmosphere in W/m².
const solarConstant = 1361.0

// Location describes the solar geometry of a site.
type Location struct {
	Latitude  float64 // degrees north
	Longitude float64 // degrees east
	Altitude  float64 // metres above sea level
}

// Position holds the sun's angular coordinates at one instant. All angles are in degrees.
// ApparentElevation includes a simple atmospheric refraction correction.
type Position struct {
	Zenith            float64
	Azimuth           float64
	Elevation         float64
	ApparentElevation float64
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}

func radToDeg(rad float64) float64 {
	return rad * (180.0 / math.Pi)
}

// fixAngle normalizes an angle to the range [0, 360) degrees.
func fixAngle(angle float64) float64 {
	return math.Mod(math.Mod(angle, 360)+360, 360)
}

// jdFromTime converts a UTC time to Julian Day.
func jdFromTime(t time.Time) float64 {
	return 2440587.5 + float64(t.Unix())/86400.0
}

// equationOfTime returns the difference between apparent and mean solar time, in minutes.
func equationOfTime(t time.Time) float64 {
	jd := jdFromTime(t)
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))            // mean longitude of the sun
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))             // mean anomaly of the sun
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)                  // eccentricity of Earth's orbit
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60 // mean obliquity of the ecliptic

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4 // 4 minutes per degree

	return eqTimeMin
}

// declination returns the solar declination in degrees for the given day of year.
func declination(dayOfYear int) float64 {
	return 23.45 * math.Sin(degToRad(360.0/365.0*float64(dayOfYear-81)))
}

// hourAngle returns the solar hour angle in degrees (0 at local solar noon, negative before).
func hourAngle(t time.Time, longitude float64) float64 {
	utc := t.UTC()
	utcMin := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60.0
	timeOffset := 4*longitude + equationOfTime(utc) // 4 min per degree of longitude plus EoT
	tst := utcMin + timeOffset                      // true solar time in minutes
	h := (tst / 4) - 180
	// keep within (-180, 180] so azimuth quadrants resolve correctly
	if h <= -180 {
		h += 360
	} else if h > 180 {
		h -= 360
	}
	return h
}

// refractionCorrection returns the apparent lift of the sun due to atmospheric
// refraction, in degrees, for the given true elevation (Saemundsson's formula).
func refractionCorrection(elevation float64) float64 {
	if elevation < -1.0 {
		return 0
	}
	return 1.02 / math.Tan(degToRad(elevation+10.3/(elevation+5.11))) / 60.0
}

// PositionAt computes the sun's position at time t for the given site.
func PositionAt(t time.Time, site Location) Position {
	delta := declination(t.UTC().YearDay())
	h := hourAngle(t, site.Longitude)

	latRad := degToRad(site.Latitude)
	deltaRad := degToRad(delta)
	hRad := degToRad(h)

	cosZenith := math.Sin(latRad)*math.Sin(deltaRad) + math.Cos(latRad)*math.Cos(deltaRad)*math.Cos(hRad)
	cosZenith = math.Max(-1, math.Min(1, cosZenith))
	zenith := radToDeg(math.Acos(cosZenith))
	elevation := 90 - zenith

	// azimuth measured clockwise from north
	azimuth := radToDeg(math.Atan2(
		math.Sin(hRad),
		math.Cos(hRad)*math.Sin(latRad)-math.Tan(deltaRad)*math.Cos(latRad),
	))
	azimuth = fixAngle(azimuth + 180)

	return Position{
		Zenith:            zenith,
		Azimuth:           azimuth,
		Elevation:         elevation,
		ApparentElevation: elevation + refractionCorrection(elevation),
	}
}

// RelativeAirmass returns the dimensionless relative airmass for a solar zenith angle in
// degrees, using the Kasten-Young formula. Callers should clip the zenith below 90.
func RelativeAirmass(zenith float64) float64 {
	if zenith >= 90 {
		zenith = 89.999
	}
	return 1.0 / (math.Cos(degToRad(zenith)) + 0.50572*math.Pow(96.07995-zenith, -1.6364))
}

// ExtraRadiation returns the extraterrestrial normal irradiance in W/m² at time t,
// accounting for the yearly variation of the Earth-Sun distance.
func ExtraRadiation(t time.Time) float64 {
	n := float64(t.UTC().YearDay())
	return solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*(n-3)/365.0)))
}
