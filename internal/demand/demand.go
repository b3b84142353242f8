// Package demand implements the demand accounting used to gate delivery to stream observers.
package demand

import (
	"math"
	"strconv"
)

// Demand is the number of further elements an observer is willing to receive.
// The zero value is None.
type Demand struct {
	max       int
	unlimited bool
}

var (
	// Unlimited places no bound on delivery.
	Unlimited = Demand{unlimited: true}

	// None asks for nothing more.
	None = Demand{}
)

// Max returns a bounded demand of n elements. Negative n is treated as zero.
func Max(n int) Demand {
	if n < 0 {
		n = 0
	}
	return Demand{max: n}
}

// IsUnlimited reports whether d places no bound on delivery.
func (d Demand) IsUnlimited() bool {
	return d.unlimited
}

// Limit returns the bound of d. ok is false for Unlimited.
func (d Demand) Limit() (n int, ok bool) {
	if d.unlimited {
		return 0, false
	}
	return d.max, true
}

// Add returns d increased by other. Unlimited absorbs any addition.
func (d Demand) Add(other Demand) Demand {
	if d.unlimited || other.unlimited {
		return Unlimited
	}
	if d.max > math.MaxInt-other.max {
		return Unlimited
	}
	return Demand{max: d.max + other.max}
}

func (d Demand) String() string {
	if d.unlimited {
		return "unlimited"
	}
	return "max(" + strconv.Itoa(d.max) + ")"
}
