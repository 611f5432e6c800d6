package physics

import "github.com/san-kum/dynstep/internal/dynamo"

// BelowGround stops a run once component index drops below zero.
func BelowGround(index int) dynamo.StopFunc {
	return func(x dynamo.State, _ float64) bool {
		return x[index] < 0
	}
}

// PastDistance stops once component index reaches d.
func PastDistance(index int, d float64) dynamo.StopFunc {
	return func(x dynamo.State, _ float64) bool {
		return x[index] >= d
	}
}

// AfterTime stops once the simulated time reaches tEnd.
func AfterTime(tEnd float64) dynamo.StopFunc {
	return func(_ dynamo.State, t float64) bool {
		return t >= tEnd
	}
}
