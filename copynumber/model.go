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

// Package copynumber computes the likelihoods of a k-mer being present
// in 0, 1, or 2 copies, given how often it was seen in the reads.
package copynumber

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NrStates is the number of copy-number states: 0, 1, and 2 copies.
const NrStates = 3

// ErrorParameter returns the parameter of the noise distribution used
// for copy number 0 at the given local coverage. Low coverage makes
// the absence of reads weak evidence, so the noise tolerance is higher.
func ErrorParameter(coverage float64) float64 {
	switch {
	case coverage < 10:
		return 0.99
	case coverage < 20:
		return 0.95
	case coverage < 40:
		return 0.90
	default:
		return 0.80
	}
}

// A Model assigns likelihoods to observed read counts for each
// copy-number state. Copy number 0 is modeled as geometric noise, and
// copy numbers 1 and 2 as Poisson distributions around half the
// coverage and the full coverage.
//
// A Model is an immutable value, so every site can use its own.
type Model struct {
	cn0, cn1, cn2 float64
	poisson1      distuv.Poisson
	poisson2      distuv.Poisson
}

// NewModel derives the model parameters from a local coverage estimate.
func NewModel(coverage float64) Model {
	return NewModelWithParameters(ErrorParameter(coverage), coverage/2, coverage)
}

// NewModelWithParameters creates a model with explicit parameters.
func NewModelWithParameters(cn0, cn1, cn2 float64) Model {
	return Model{
		cn0:      cn0,
		cn1:      cn1,
		cn2:      cn2,
		poisson1: distuv.Poisson{Lambda: cn1},
		poisson2: distuv.Poisson{Lambda: cn2},
	}
}

// Parameters returns the noise parameter and the expected counts for
// copy numbers 1 and 2.
func (m Model) Parameters() (cn0, cn1, cn2 float64) {
	return m.cn0, m.cn1, m.cn2
}

func poisson(p distuv.Poisson, count uint64) float64 {
	if p.Lambda <= 0 {
		if count == 0 {
			return 1
		}
		return 0
	}
	return p.Prob(float64(count))
}

// Probability returns the likelihood of observing count reads for a
// k-mer in the given copy-number state. The result is finite and
// non-negative.
func (m Model) Probability(state int, count uint64) float64 {
	switch state {
	case 0:
		return m.cn0 * math.Pow(1-m.cn0, float64(count))
	case 1:
		return poisson(m.poisson1, count)
	case 2:
		return poisson(m.poisson2, count)
	default:
		panic(fmt.Sprintf("invalid copy-number state %v", state))
	}
}

// CopyNumber evaluates all three states for the given count.
func (m Model) CopyNumber(count uint64) CopyNumber {
	return New(m.Probability(0, count), m.Probability(1, count), m.Probability(2, count))
}
