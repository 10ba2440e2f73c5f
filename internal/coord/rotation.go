package coord

import "math"

// Jones is a 2x2 complex matrix: an antenna's directional, frequency- and
// polarization-dependent electric field response, or a source coherency.
// Index [0][0] and [1][1] are the two feed self-responses, [0][1]/[1][0]
// the cross terms. This ordering matches the [xx, yy, xy, yx] packing of
// the output visibility vector.
type Jones [2][2]complex128

// IdentityJones is the unit response.
var IdentityJones = Jones{{1, 0}, {0, 1}}

// Mul returns the matrix product j * other.
func (j Jones) Mul(other Jones) Jones {
	var out Jones
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			out[r][c] = j[r][0]*other[0][c] + j[r][1]*other[1][c]
		}
	}
	return out
}

// ConjTranspose returns the Hermitian adjoint jᴴ.
func (j Jones) ConjTranspose() Jones {
	conj := func(z complex128) complex128 { return complex(real(z), -imag(z)) }
	return Jones{
		{conj(j[0][0]), conj(j[1][0])},
		{conj(j[0][1]), conj(j[1][1])},
	}
}

// Scale returns j scaled elementwise by the complex factor z.
func (j Jones) Scale(z complex128) Jones {
	return Jones{
		{j[0][0] * z, j[0][1] * z},
		{j[1][0] * z, j[1][1] * z},
	}
}

// RotMatrix2 is a 2x2 real rotation applied to polarization bases.
type RotMatrix2 [2][2]float64

// Identity2 is the do-nothing basis rotation.
var Identity2 = RotMatrix2{{1, 0}, {0, 1}}

// ParallacticRotation builds the rotation between the equatorial and local
// polarization bases for a source at declination dec seen at hour angle ha
// from latitude lat (all radians):
//
//	[[ cosX, sinX],
//	 [-sinX, cosX]]
//
// with sinX = sin(HA) and cosX = tan(lat)·cos(dec) − sin(dec)·cos(HA).
// The matrix follows the reference convention and is NOT normalized to a
// proper rotation; callers must not re-normalize it.
func ParallacticRotation(dec, ha, lat float64) RotMatrix2 {
	sinX := math.Sin(ha)
	cosX := math.Tan(lat)*math.Cos(dec) - math.Sin(dec)*math.Cos(ha)
	return RotMatrix2{
		{cosX, sinX},
		{-sinX, cosX},
	}
}

// RotateCoherency rotates an equatorial coherency matrix into the local
// basis: C_local = Rᵗ · C · R.
func RotateCoherency(c Jones, r RotMatrix2) Jones {
	// Rᵗ · C
	var tmp Jones
	for i := 0; i < 2; i++ {
		for k := 0; k < 2; k++ {
			tmp[i][k] = complex(r[0][i], 0)*c[0][k] + complex(r[1][i], 0)*c[1][k]
		}
	}
	// (Rᵗ·C) · R
	var out Jones
	for i := 0; i < 2; i++ {
		for k := 0; k < 2; k++ {
			out[i][k] = tmp[i][0]*complex(r[0][k], 0) + tmp[i][1]*complex(r[1][k], 0)
		}
	}
	return out
}
