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

// Package kmers extracts unique k-mers from sequences, and counts
// k-mer abundances over genomes and read sets.
package kmers

import (
	"sort"

	"github.com/exascience/elkmer/dna"
)

// Occurrences maps k-mers to the owners of the sequences they were
// found unique in. The same owner may appear more than once if it was
// used for several sequences.
type Occurrences map[dna.Kmer][]byte

// ExtractUnique counts the multiplicities of all k-mers in seq, and
// adds owner to the occurrences of every k-mer that occurs exactly
// once. Windows overlapping an undefined base are never counted.
// Sequences shorter than k contribute nothing.
func ExtractUnique(seq dna.Sequence, owner byte, codec dna.KmerCodec, occurrences Occurrences) {
	counts := make(map[dna.Kmer]int, len(seq))
	codec.Each(seq, func(kmer dna.Kmer) {
		counts[kmer]++
	})
	for kmer, count := range counts {
		if count == 1 {
			occurrences[kmer] = append(occurrences[kmer], owner)
		}
	}
}

// SortedKmers returns the k-mers of the occurrences in ascending order.
func (occurrences Occurrences) SortedKmers() []dna.Kmer {
	result := make([]dna.Kmer, 0, len(occurrences))
	for kmer := range occurrences {
		result = append(result, kmer)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
