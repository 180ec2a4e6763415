package collectors

import (
	"math"
	"time"
)

const (
	second = time.Second
	hour   = time.Hour
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }
