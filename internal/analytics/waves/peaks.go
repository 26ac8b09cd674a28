package waves

import (
	"sort"
)

// localMaxima returns the indices of samples strictly greater than both
// neighbours. A flat top resolves to its middle sample (rounded down). The
// first and last samples are never maxima.
func localMaxima(x []float64) []int {
	var peaks []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				peaks = append(peaks, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return peaks
}

// selectByDistance drops peaks closer than distance samples to a higher
// peak. Ties are broken in favour of the later peak.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if distance <= 1 || len(peaks) < 2 {
		return peaks
	}

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	// priority order: ascending height, stable on position
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	for k := len(order) - 1; k >= 0; k-- {
		j := order[k]
		if !keep[j] {
			continue
		}
		for l := j - 1; l >= 0 && peaks[j]-peaks[l] < distance; l-- {
			keep[l] = false
		}
		for l := j + 1; l < len(peaks) && peaks[l]-peaks[j] < distance; l++ {
			keep[l] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// prominence returns how far x[peak] rises above the higher of the two
// lowest points reached before the signal climbs above it on either side.
func prominence(x []float64, peak int) (prom float64, leftBase, rightBase int) {
	leftMin := x[peak]
	leftBase = peak
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightMin := x[peak]
	rightBase = peak
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	return x[peak] - max(leftMin, rightMin), leftBase, rightBase
}
