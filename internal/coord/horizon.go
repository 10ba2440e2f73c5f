// Package coord provides the coordinate and polarization math for visibility
// simulation: sidereal time, apparent-place transforms between the ICRS and
// the local horizon frame, and the parallactic rotation applied to source
// coherency matrices.
//
// Method: IAU-76 precession plus a short IAU-1980 nutation series, evaluated
// on UTC. This ignores polar motion, aberration, and the full nutation
// series, which keeps apparent places at the arcsecond level. Every worker
// evaluates the identical model, and the simulator's correctness depends on
// that consistency rather than on absolute astrometric accuracy.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package coord

import (
	"math"
	"time"
)

// Location is a ground reference point for an antenna array, with latitude
// trig precomputed once so it can be reused across many source lookups.
type Location struct {
	LatRad, LonRad, AltM float64 // geodetic (radians, meters above ellipsoid)
	SinLat, CosLat       float64 // precomputed latitude trig
}

// NewLocation creates a Location from geodetic coordinates.
// Latitude and longitude are in degrees, altitude in meters.
func NewLocation(latDeg, lonDeg, altM float64) Location {
	lat := latDeg * degToRad
	return Location{
		LatRad: lat,
		LonRad: lonDeg * degToRad,
		AltM:   altM,
		SinLat: math.Sin(lat),
		CosLat: math.Cos(lat),
	}
}

// Equal reports whether two locations coincide to well below a meter.
func (l Location) Equal(other Location) bool {
	const tol = 1e-9 // radians; ~6 mm on the ground
	return math.Abs(l.LatRad-other.LatRad) < tol &&
		math.Abs(l.LonRad-other.LonRad) < tol &&
		math.Abs(l.AltM-other.AltM) < 1e-3
}

// vec3 is a unit direction vector in an equatorial frame.
type vec3 [3]float64

func raDecToVec(ra, dec float64) vec3 {
	cd := math.Cos(dec)
	return vec3{cd * math.Cos(ra), cd * math.Sin(ra), math.Sin(dec)}
}

func vecToRaDec(v vec3) (ra, dec float64) {
	ra = normalizeAngle(math.Atan2(v[1], v[0]))
	dec = math.Asin(v[2])
	return ra, dec
}

// precessionAngles returns the IAU-76 equatorial precession angles
// ζ, z, θ (radians) for T Julian centuries from J2000.0 (Vallado Eq 3-56).
func precessionAngles(T float64) (zeta, z, theta float64) {
	T2 := T * T
	T3 := T2 * T
	zeta = (2306.2181*T + 0.30188*T2 + 0.017998*T3) * arcsecToRad
	z = (2306.2181*T + 1.09468*T2 + 0.018203*T3) * arcsecToRad
	theta = (2004.3109*T - 0.42665*T2 - 0.041833*T3) * arcsecToRad
	return zeta, z, theta
}

// nutation returns the nutation in longitude Δψ, the mean obliquity ε0 and
// the true obliquity ε (all radians), using the four dominant terms of the
// IAU-1980 series. Keeps apparent places consistent with the equation of
// the equinoxes used for sidereal time.
func nutation(T float64) (dpsi, eps0, eps float64) {
	// Fundamental arguments (degrees).
	omega := 125.04452 - 1934.136261*T // longitude of the Moon's ascending node
	lsun := 280.4665 + 36000.7698*T    // mean longitude of the Sun
	lmoon := 218.3165 + 481267.8813*T  // mean longitude of the Moon

	om := omega * degToRad
	ls := 2 * lsun * degToRad
	lm := 2 * lmoon * degToRad

	dpsi = (-17.20*math.Sin(om) - 1.32*math.Sin(ls) - 0.23*math.Sin(lm) + 0.21*math.Sin(2*om)) * arcsecToRad
	deps := (9.20*math.Cos(om) + 0.57*math.Cos(ls) + 0.10*math.Cos(lm) - 0.09*math.Cos(2*om)) * arcsecToRad
	eps0 = (23.439291 - 0.0130042*T) * degToRad
	return dpsi, eps0, eps0 + deps
}

// rotX and rotZ apply elementary frame rotations to a column vector.
func rotX(v vec3, a float64) vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return vec3{v[0], c*v[1] + s*v[2], -s*v[1] + c*v[2]}
}

func rotZ(v vec3, a float64) vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return vec3{c*v[0] + s*v[1], -s*v[0] + c*v[1], v[2]}
}

// ICRSToApparent transforms a mean J2000 (ICRS) right ascension and
// declination to the apparent place of date: precession P = R3(-z) R2(θ)
// R3(-ζ) followed by nutation N = R1(-ε) R3(-Δψ) R1(ε0).
func ICRSToApparent(ra, dec float64, t time.Time) (raApp, decApp float64) {
	T := julianCenturies(t)
	zeta, z, theta := precessionAngles(T)
	dpsi, eps0, eps := nutation(T)

	v := raDecToVec(ra, dec)

	// Precession: mean J2000 -> mean of date.
	v = rotZ(v, -zeta)
	// R2(θ) about the y-axis.
	c, s := math.Cos(theta), math.Sin(theta)
	v = vec3{c*v[0] - s*v[2], v[1], s*v[0] + c*v[2]}
	v = rotZ(v, -z)

	// Nutation: mean of date -> true of date.
	v = rotX(v, eps0)
	v = rotZ(v, -dpsi)
	v = rotX(v, -eps)

	return vecToRaDec(v)
}

// ApparentToICRS is the exact inverse of ICRSToApparent (transposed
// rotations applied in reverse order).
func ApparentToICRS(raApp, decApp float64, t time.Time) (ra, dec float64) {
	T := julianCenturies(t)
	zeta, z, theta := precessionAngles(T)
	dpsi, eps0, eps := nutation(T)

	v := raDecToVec(raApp, decApp)

	// Undo nutation.
	v = rotX(v, eps)
	v = rotZ(v, dpsi)
	v = rotX(v, -eps0)

	// Undo precession.
	v = rotZ(v, z)
	c, s := math.Cos(theta), math.Sin(theta)
	v = vec3{c*v[0] + s*v[2], v[1], -s*v[0] + c*v[2]}
	v = rotZ(v, zeta)

	return vecToRaDec(v)
}

// HourAngle returns the local hour angle (radians, wrapped to (-π, π]) of an
// ICRS right ascension: local apparent sidereal time minus apparent RA.
func HourAngle(ra, dec float64, t time.Time, loc Location) float64 {
	raApp, _ := ICRSToApparent(ra, dec, t)
	ha := ApparentSiderealTime(t, loc.LonRad) - raApp
	ha = normalizeAngle(ha)
	if ha > math.Pi {
		ha -= 2 * math.Pi
	}
	return ha
}

// EquatorialToHorizon transforms an ICRS position to the local horizon frame
// at the given time and location. Azimuth is measured East of North
// (0 = North, π/2 = East); the zenith angle is π/2 minus the altitude.
func EquatorialToHorizon(ra, dec float64, t time.Time, loc Location) (az, za float64) {
	raApp, decApp := ICRSToApparent(ra, dec, t)
	ha := ApparentSiderealTime(t, loc.LonRad) - raApp

	sinDec, cosDec := math.Sin(decApp), math.Cos(decApp)
	sinH, cosH := math.Sin(ha), math.Cos(ha)

	sinAlt := sinDec*loc.SinLat + cosDec*loc.CosLat*cosH
	if sinAlt > 1 {
		sinAlt = 1
	} else if sinAlt < -1 {
		sinAlt = -1
	}
	alt := math.Asin(sinAlt)

	az = math.Atan2(-cosDec*sinH, sinDec*loc.CosLat-cosDec*loc.SinLat*cosH)
	return normalizeAngle(az), math.Pi/2 - alt
}

// HorizonToEquatorial is the inverse transform: a horizon-frame direction
// (azimuth East of North, altitude) at the given time and location back to
// ICRS right ascension and declination. Round-trips with
// EquatorialToHorizon to numerical precision.
func HorizonToEquatorial(az, alt float64, t time.Time, loc Location) (ra, dec float64) {
	sinAlt, cosAlt := math.Sin(alt), math.Cos(alt)
	sinAz, cosAz := math.Sin(az), math.Cos(az)

	sinDec := sinAlt*loc.SinLat + cosAlt*loc.CosLat*cosAz
	if sinDec > 1 {
		sinDec = 1
	} else if sinDec < -1 {
		sinDec = -1
	}
	decApp := math.Asin(sinDec)

	// HA from the same spherical triangle, quadrant-safe.
	ha := math.Atan2(-cosAlt*sinAz, sinAlt*loc.CosLat-cosAlt*loc.SinLat*cosAz)

	raApp := normalizeAngle(ApparentSiderealTime(t, loc.LonRad) - ha)
	return ApparentToICRS(raApp, decApp, t)
}
