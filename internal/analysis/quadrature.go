package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"

	"github.com/san-kum/tankdrain/internal/dynamo"
)

// MidpointIntegral integrates y with respect to x, averaging consecutive y
// values over each interval. A single point integrates to zero.
func MidpointIntegral(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, &dynamo.InvalidInputError{
			Op:     "midpoint integral",
			Reason: fmt.Sprintf("length mismatch: len(x)=%d len(y)=%d", len(x), len(y)),
		}
	}
	switch len(x) {
	case 0:
		return 0, &dynamo.InvalidInputError{Op: "midpoint integral", Reason: "no points"}
	case 1:
		return 0, nil
	}

	if sort.Float64sAreSorted(x) {
		return integrate.Trapezoidal(x, y), nil
	}

	// integrate.Trapezoidal rejects unsorted abscissae; keep the signed sum.
	sum := 0.0
	for i := 0; i < len(y)-1; i++ {
		sum += 0.5 * (y[i] + y[i+1]) * (x[i+1] - x[i])
	}
	return sum, nil
}
