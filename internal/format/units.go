package format

import (
	"fmt"
	"strconv"

	"github.com/c2h5oh/datasize"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// Percent renders a percentage with one decimal, like "42.5%".
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Megabytes renders a megabyte quantity with two decimals, like "1.25 MB".
func Megabytes(v float64) string {
	return fmt.Sprintf("%.2f MB", v)
}

// Bytes renders a byte count in the largest fitting binary unit, like
// "1.5 GB" or "512 B".
func Bytes(n uint64) string {
	return datasize.ByteSize(n).HumanReadable()
}

// Value renders v in the given unit.
func Value(v float64, unit collectors.Unit) string {
	switch unit {
	case collectors.UnitPercent:
		return Percent(v)
	case collectors.UnitMegabytes:
		return Megabytes(v)
	}
	return fmt.Sprintf("%.2f", v)
}

// Fixed1 renders v with one decimal and no unit, like "12.5".
func Fixed1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Int renders an integer in base 10.
func Int(n int64) string {
	return strconv.FormatInt(n, 10)
}
