package sim

import (
	"math"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
)

// lineOfSight is a satellite direction in radians
type lineOfSight struct {
	elevation float64
	azimuth   float64
}

// localAxes returns the east, north and up unit vectors in ECEF for the
// geodetic position pos
func localAxes(pos geodesy.LLH) [3][3]float64 {
	sinLat, cosLat := math.Sincos(pos.Lat)
	sinLon, cosLon := math.Sincos(pos.Lon)
	return [3][3]float64{
		{-sinLon, cosLon, 0},
		{-sinLat * cosLon, -sinLat * sinLon, cosLat},
		{cosLat * cosLon, cosLat * sinLon, sinLat},
	}
}

// enuToEcef resolves a local east/north/up vector at pos in ECEF
func enuToEcef(pos geodesy.LLH, east, north, up float64) geodesy.ECEF {
	axes := localAxes(pos)
	return geodesy.ECEF{
		X: east*axes[0][0] + north*axes[1][0] + up*axes[2][0],
		Y: east*axes[0][1] + north*axes[1][1] + up*axes[2][1],
		Z: east*axes[0][2] + north*axes[1][2] + up*axes[2][2],
	}
}

// covariance returns the packed ECEF position and clock covariance of a unit
// variance least squares fix over sky. Fewer than four satellites, or a
// singular geometry, give a zero covariance.
func covariance(pos geodesy.LLH, sky []lineOfSight) [10]float64 {
	var packed [10]float64
	if len(sky) < 4 {
		return packed
	}

	// normal matrix in east, north, up, clock
	var q [4][4]float64
	for _, los := range sky {
		sinEl, cosEl := math.Sincos(los.elevation)
		sinAz, cosAz := math.Sincos(los.azimuth)
		h := [4]float64{cosEl * sinAz, cosEl * cosAz, sinEl, 1}
		for i := range h {
			for j := range h {
				q[i][j] += h[i] * h[j]
			}
		}
	}
	if !invert4(&q) {
		return packed
	}

	// C_ecef = Aᵀ C_enu A where the rows of A are the local axes
	a := localAxes(pos)
	var c [4][4]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				for l := 0; l < 3; l++ {
					c[i][j] += a[k][i] * q[k][l] * a[l][j]
				}
			}
		}
		for k := 0; k < 3; k++ {
			c[i][3] += a[k][i] * q[k][3]
		}
	}
	c[3][3] = q[3][3]

	return [10]float64{
		c[0][0],
		c[0][1], c[1][1],
		c[0][2], c[1][2], c[2][2],
		c[0][3], c[1][3], c[2][3], c[3][3],
	}
}

// invert4 inverts m in place by Gauss-Jordan elimination with partial
// pivoting and reports false if m is singular
func invert4(m *[4][4]float64) bool {
	const n = 4
	var inv [n][n]float64
	for i := range inv {
		inv[i][i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return false
		}
		m[col], m[pivot] = m[pivot], m[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		scale := 1 / m[col][col]
		for j := 0; j < n; j++ {
			m[col][j] *= scale
			inv[col][j] *= scale
		}
		for r := 0; r < n; r++ {
			if r == col || m[r][col] == 0 {
				continue
			}
			f := m[r][col]
			for j := 0; j < n; j++ {
				m[r][j] -= f * m[col][j]
				inv[r][j] -= f * inv[col][j]
			}
		}
	}

	*m = inv
	return true
}
