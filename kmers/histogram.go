// elkmer: unique k-mer copy-number evidence for panel genotyping.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package kmers

// EstimateCoverage derives the nominal k-mer coverage of a read set
// from its k-mer count histogram, as returned by Table.Histogram.
//
// Low counts are dominated by sequencing errors, so the histogram is
// first followed downwards from count 1 to its first local minimum.
// The count with the most k-mers after that minimum is the coverage
// estimate. The last histogram entry collects all larger counts and
// is never considered. EstimateCoverage returns 0 if the histogram
// has no such peak.
func EstimateCoverage(histogram []uint64) float64 {
	last := len(histogram) - 1
	i := 1
	for i < last && histogram[i+1] <= histogram[i] {
		i++
	}
	if i >= last {
		return 0
	}
	peak := i
	for j := i + 1; j < last; j++ {
		if histogram[j] > histogram[peak] {
			peak = j
		}
	}
	if peak == i {
		return 0
	}
	return float64(peak)
}
