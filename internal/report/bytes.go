package report

import (
	"fmt"
	"math"
)

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// HumanBytes formats a byte count with binary prefixes and two decimals: 1024 -> "1.00 KiB"
func HumanBytes(n int64) string {
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	// 1023.995 KiB would print as "1024.00 KiB"
	if math.Round(size*100)/100 >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[unit])
}
