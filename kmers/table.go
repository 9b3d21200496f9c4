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

import (
	"github.com/exascience/elkmer/dna"
)

// A Counter reports how often a k-mer occurs in some genome or read
// set. Unseen k-mers have abundance 0. Implementations must be safe
// for concurrent reads.
type Counter interface {
	Abundance(kmer dna.Kmer) uint64
}

// Counters is a Counter that adds up the abundances of several
// counters, for example a persisted genome count and the counts of
// the alleles of a panel.
type Counters []Counter

// Abundance implements the Counter interface.
func (counters Counters) Abundance(kmer dna.Kmer) (result uint64) {
	for _, counter := range counters {
		result += counter.Abundance(kmer)
	}
	return result
}

// A Table is an in-memory Counter.
//
// If canonical is true, a k-mer and its reverse complement share a
// single count, both when counting and when looking up.
type Table struct {
	codec     dna.KmerCodec
	canonical bool
	counts    map[dna.Kmer]uint64
}

// NewTable creates an empty table.
func NewTable(codec dna.KmerCodec, canonical bool) *Table {
	return &Table{
		codec:     codec,
		canonical: canonical,
		counts:    make(map[dna.Kmer]uint64),
	}
}

// Codec returns the codec of the table.
func (table *Table) Codec() dna.KmerCodec {
	return table.codec
}

// Canonical returns true if the table merges k-mers with their
// reverse complements.
func (table *Table) Canonical() bool {
	return table.canonical
}

func (table *Table) key(kmer dna.Kmer) dna.Kmer {
	if table.canonical {
		return table.codec.Canonical(kmer)
	}
	return kmer
}

// Add adds n occurrences of the given k-mer.
func (table *Table) Add(kmer dna.Kmer, n uint64) {
	table.counts[table.key(kmer)] += n
}

// AddSequence counts all k-mers of the given sequence.
func (table *Table) AddSequence(seq dna.Sequence) {
	table.codec.Each(seq, func(kmer dna.Kmer) {
		table.counts[table.key(kmer)]++
	})
}

// Merge adds all counts of other to this table. Both tables must use
// the same codec and the same canonical setting.
func (table *Table) Merge(other *Table) {
	for kmer, count := range other.counts {
		table.counts[kmer] += count
	}
}

// Abundance implements the Counter interface.
func (table *Table) Abundance(kmer dna.Kmer) uint64 {
	return table.counts[table.key(kmer)]
}

// Len returns the number of distinct k-mers in the table.
func (table *Table) Len() int {
	return len(table.counts)
}

// Range calls f for every k-mer in the table, in no particular order,
// until f returns false.
func (table *Table) Range(f func(kmer dna.Kmer, count uint64) bool) {
	for kmer, count := range table.counts {
		if !f(kmer, count) {
			return
		}
	}
}

// Histogram returns how many distinct k-mers have each count. Counts
// larger than max are accumulated in the last entry.
func (table *Table) Histogram(max int) []uint64 {
	histogram := make([]uint64, max+1)
	for _, count := range table.counts {
		if count > uint64(max) {
			histogram[max]++
		} else {
			histogram[count]++
		}
	}
	return histogram
}
