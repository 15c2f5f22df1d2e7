package geodesy

import "math"

// DopInvalid is reported for every DOP component when the geometry is unusable
const DopInvalid = 99.0

// DopSet holds dilution of precision values
type DopSet struct {
	HDOP float64 `json:"hdop"`
	VDOP float64 `json:"vdop"`
	PDOP float64 `json:"pdop"`
	TDOP float64 `json:"tdop"`
}

// InvalidDop returns a DopSet with every component set to DopInvalid
func InvalidDop() DopSet {
	return DopSet{HDOP: DopInvalid, VDOP: DopInvalid, PDOP: DopInvalid, TDOP: DopInvalid}
}

// Valid reports whether the set holds computed values rather than the sentinel
func (d DopSet) Valid() bool {
	return d.PDOP != DopInvalid
}

// CalcDopValues projects the position block of a packed symmetric covariance
// onto the local frame and returns the DOP values.
//
// The covariance is packed row-wise over the upper triangle of x, y, z and
// clock: [xx, xy, yy, xz, yz, zz, xt, yt, zt, tt]. Only the diagonal of
// R·C·Rᵀ is evaluated.
func CalcDopValues(cov [10]float64, rc RotationCoefficients) DopSet {
	if cov[0] <= 0 {
		return InvalidDop()
	}

	p0, p2, p5 := cov[0], cov[2], cov[5]
	p1, p3, p4 := 2*cov[1], 2*cov[3], 2*cov[4]

	pe := rc.X2E*rc.X2E*p0 + rc.X2E*rc.Y2E*p1 + rc.Y2E*rc.Y2E*p2
	pn := diagonal(rc.X2N, rc.Y2N, rc.Z2N, p0, p1, p2, p3, p4, p5)
	pu := diagonal(rc.X2U, rc.Y2U, rc.Z2U, p0, p1, p2, p3, p4, p5)

	if pe < 0 || pn < 0 || pu < 0 || cov[9] < 0 {
		return InvalidDop()
	}

	return DopSet{
		HDOP: math.Sqrt(pe + pn),
		VDOP: math.Sqrt(pu),
		PDOP: math.Sqrt(pe + pn + pu),
		TDOP: math.Sqrt(cov[9]),
	}
}

// diagonal evaluates one diagonal term of R·C·Rᵀ for row (x, y, z); the cross
// terms p1, p3 and p4 are already doubled.
func diagonal(x, y, z, p0, p1, p2, p3, p4, p5 float64) float64 {
	return x*x*p0 + y*y*p2 + z*z*p5 + x*y*p1 + x*z*p3 + y*z*p4
}
