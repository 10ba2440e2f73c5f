package coord

import (
	"math"
	"testing"
)

func TestJones_MulIdentity(t *testing.T) {
	j := Jones{{2 + 1i, 3}, {0.5i, -1}}
	if got := j.Mul(IdentityJones); got != j {
		t.Errorf("j * I = %v, want %v", got, j)
	}
	if got := IdentityJones.Mul(j); got != j {
		t.Errorf("I * j = %v, want %v", got, j)
	}
}

func TestJones_ConjTranspose(t *testing.T) {
	j := Jones{{1 + 2i, 3 - 1i}, {-2i, 5}}
	h := j.ConjTranspose()

	want := Jones{{1 - 2i, 2i}, {3 + 1i, 5}}
	if h != want {
		t.Errorf("jᴴ = %v, want %v", h, want)
	}
	// Involution.
	if hh := h.ConjTranspose(); hh != j {
		t.Errorf("(jᴴ)ᴴ = %v, want %v", hh, j)
	}
}

func TestRotateCoherency_IdentityRotation(t *testing.T) {
	c := Jones{{0.7, 0.1 - 0.2i}, {0.1 + 0.2i, 0.3}}
	if got := RotateCoherency(c, Identity2); got != c {
		t.Errorf("Iᵗ·C·I = %v, want %v", got, c)
	}
}

func TestParallacticRotation_Structure(t *testing.T) {
	// By construction R·Rᵗ = (sinX² + cosX²)·I: exactly diagonal with equal
	// entries. The reference convention leaves R unnormalized (tan(lat)
	// form), so the diagonal is generally NOT 1; this is a known property of
	// the convention, not a defect to normalize away.
	lat := -30.72 * degToRad
	for _, c := range []struct{ dec, ha float64 }{
		{-0.7, 0.3},
		{0.2, -1.1},
		{-1.2, 2.0},
	} {
		r := ParallacticRotation(c.dec, c.ha, lat)

		rrT := [2][2]float64{}
		for i := 0; i < 2; i++ {
			for k := 0; k < 2; k++ {
				rrT[i][k] = r[i][0]*r[k][0] + r[i][1]*r[k][1]
			}
		}

		if math.Abs(rrT[0][1]) > 1e-12 || math.Abs(rrT[1][0]) > 1e-12 {
			t.Errorf("R·Rᵗ off-diagonal nonzero: %v", rrT)
		}
		if math.Abs(rrT[0][0]-rrT[1][1]) > 1e-12 {
			t.Errorf("R·Rᵗ diagonal unequal: %v", rrT)
		}
		t.Logf("dec=%.2f ha=%.2f: |R·Rᵗ - I| diagonal deviation = %.3e",
			c.dec, c.ha, math.Abs(rrT[0][0]-1))
	}
}

func TestParallacticRotation_Components(t *testing.T) {
	dec, ha, lat := -0.5, 0.8, -0.54
	r := ParallacticRotation(dec, ha, lat)

	sinX := math.Sin(ha)
	cosX := math.Tan(lat)*math.Cos(dec) - math.Sin(dec)*math.Cos(ha)

	if r[0][0] != cosX || r[0][1] != sinX || r[1][0] != -sinX || r[1][1] != cosX {
		t.Errorf("unexpected matrix layout: %v", r)
	}
}

func TestRotateCoherency_ScalesIsotropicByNorm(t *testing.T) {
	// Rotating an isotropic coherency by the unnormalized matrix scales it
	// by sinX²+cosX², which is why unpolarized sources take the identity
	// shortcut instead of passing through the rotation.
	c := Jones{{0.5, 0}, {0, 0.5}}
	r := ParallacticRotation(-0.5, 0.8, -0.54)
	norm := r[0][0]*r[0][0] + r[0][1]*r[0][1]

	got := RotateCoherency(c, r)
	if math.Abs(real(got[0][0])-0.5*norm) > 1e-12 || math.Abs(real(got[1][1])-0.5*norm) > 1e-12 {
		t.Errorf("rotated isotropic coherency = %v, want 0.5·%f·I", got, norm)
	}
	if got[0][1] != 0 || got[1][0] != 0 {
		t.Errorf("rotated isotropic coherency has cross terms: %v", got)
	}
}
