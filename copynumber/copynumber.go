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

package copynumber

import "fmt"

// CopyNumber holds one non-negative value per copy-number state.
type CopyNumber struct {
	probabilities [NrStates]float64
}

// New keeps the given values as they are.
func New(p0, p1, p2 float64) CopyNumber {
	return CopyNumber{probabilities: [NrStates]float64{p0, p1, p2}}
}

// NewRegularized normalizes the given values and mixes them with the
// uniform distribution, with weight 3r for the uniform part:
//
//	(p_i/sum + r) / (1 + 3r)
//
// Every value moves towards 1/3, and the order of the states is kept.
// If all values are 0, the result is uniform.
func NewRegularized(p0, p1, p2, r float64) CopyNumber {
	sum := p0 + p1 + p2
	if sum <= 0 {
		return New(1.0/3, 1.0/3, 1.0/3)
	}
	z := 1 + 3*r
	return New((p0/sum+r)/z, (p1/sum+r)/z, (p2/sum+r)/z)
}

// Probability returns the value for the given copy-number state.
func (cn CopyNumber) Probability(state int) float64 {
	return cn.probabilities[state]
}

// Probabilities returns the values of all states.
func (cn CopyNumber) Probabilities() [NrStates]float64 {
	return cn.probabilities
}

// Informative is true if any state has a value larger than 0.
func (cn CopyNumber) Informative() bool {
	for _, p := range cn.probabilities {
		if p > 0 {
			return true
		}
	}
	return false
}

func (cn CopyNumber) String() string {
	return fmt.Sprintf("%g,%g,%g", cn.probabilities[0], cn.probabilities[1], cn.probabilities[2])
}
