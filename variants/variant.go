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

// Package variants models the variant sites of a reference panel:
// their allele sequences, the haplotype paths through them, and the
// reference sequence flanking them.
package variants

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/exascience/elkmer/dna"
)

// MaxAlleles is the maximum number of alleles per site, so that
// allele ids fit into a byte.
const MaxAlleles = 256

// ErrInvalidPanel is returned for inconsistent panel input.
var ErrInvalidPanel = errors.New("invalid variant panel")

// A Variant is a site of genetic variation. Each path through the
// site, for example one haplotype of a panel sample, carries exactly
// one of its alleles. Alleles do not need to be carried by any path.
type Variant struct {
	start, end int
	alleles    []dna.Sequence
	paths      []byte
}

// NewVariant creates a variant spanning the reference interval
// [start, end) with the given allele sequences, indexed by allele id,
// and the allele id carried by each path.
func NewVariant(start, end int, alleles []dna.Sequence, paths []byte) (*Variant, error) {
	if len(alleles) > MaxAlleles {
		return nil, fmt.Errorf("%w: %v alleles at position %v, at most %v are supported", ErrInvalidPanel, len(alleles), start, MaxAlleles)
	}
	for p, a := range paths {
		if int(a) >= len(alleles) {
			return nil, fmt.Errorf("%w: path %v at position %v refers to unknown allele %v", ErrInvalidPanel, p, start, a)
		}
	}
	return &Variant{start: start, end: end, alleles: alleles, paths: paths}, nil
}

// StartPosition returns the 0-based reference start of the variant.
func (v *Variant) StartPosition() int {
	return v.start
}

// EndPosition returns the 0-based exclusive reference end of the variant.
func (v *Variant) EndPosition() int {
	return v.end
}

// NrAlleles returns the number of alleles.
func (v *Variant) NrAlleles() int {
	return len(v.alleles)
}

// NrPaths returns the number of paths.
func (v *Variant) NrPaths() int {
	return len(v.paths)
}

// AlleleSequence returns the sequence of the given allele.
func (v *Variant) AlleleSequence(allele byte) dna.Sequence {
	return v.alleles[allele]
}

// AlleleOnPath returns the allele id carried by the given path.
func (v *Variant) AlleleOnPath(path int) byte {
	return v.paths[path]
}

// PathsOfAlleles returns the set of paths that carry any of the given alleles.
func (v *Variant) PathsOfAlleles(alleles []byte) *bitset.BitSet {
	var wanted [MaxAlleles]bool
	for _, a := range alleles {
		wanted[a] = true
	}
	result := bitset.New(uint(len(v.paths)))
	for p, a := range v.paths {
		if wanted[a] {
			result.Set(uint(p))
		}
	}
	return result
}

// A Reader gives access to the variants of a panel, per chromosome,
// and to the reference sequence around them. Variants are indexed
// from 0 in reference order.
type Reader interface {
	// SizeOf returns the number of variants on the given chromosome.
	SizeOf(chromosome string) int
	// Variant returns the variant with the given index.
	Variant(chromosome string, index int) *Variant
	// KmerSize returns the k-mer size the panel was prepared for.
	KmerSize() int
	// LeftOverhang returns up to length reference bases immediately
	// left of the variant.
	LeftOverhang(chromosome string, index, length int) dna.Sequence
	// RightOverhang returns up to length reference bases immediately
	// right of the variant.
	RightOverhang(chromosome string, index, length int) dna.Sequence
}
