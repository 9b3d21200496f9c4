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

package uniquekmers

import (
	"sort"

	"github.com/exascience/elkmer/copynumber"
	"github.com/exascience/elkmer/dna"
)

type kmerEntry struct {
	cn      copynumber.CopyNumber
	alleles []byte
}

// A Site holds the informative unique k-mers of one variant site,
// together with the copy-number probabilities derived from their read
// counts.
//
// Every allele carried by a path is listed, even if none of its
// k-mers survived.
type Site struct {
	index    int
	position int
	coverage float64
	alleles  []byte
	paths    []byte
	kmers    []dna.Kmer
	entries  map[dna.Kmer]*kmerEntry
}

// NewSite creates an empty site record for the variant with the given
// index and start position.
func NewSite(index, position int) *Site {
	return &Site{
		index:    index,
		position: position,
		entries:  make(map[dna.Kmer]*kmerEntry),
	}
}

// Index returns the index of the variant.
func (site *Site) Index() int {
	return site.index
}

// Position returns the start position of the variant.
func (site *Site) Position() int {
	return site.position
}

// Coverage returns the local coverage estimate.
func (site *Site) Coverage() float64 {
	return site.coverage
}

// SetCoverage sets the local coverage estimate.
func (site *Site) SetCoverage(coverage float64) {
	site.coverage = coverage
}

// InsertEmptyAllele makes sure the given allele is listed.
func (site *Site) InsertEmptyAllele(allele byte) {
	i := sort.Search(len(site.alleles), func(i int) bool { return site.alleles[i] >= allele })
	if i < len(site.alleles) && site.alleles[i] == allele {
		return
	}
	site.alleles = append(site.alleles, 0)
	copy(site.alleles[i+1:], site.alleles[i:])
	site.alleles[i] = allele
}

// InsertPath records the allele carried by the given path.
func (site *Site) InsertPath(path int, allele byte) {
	for len(site.paths) <= path {
		site.paths = append(site.paths, 0)
	}
	site.paths[path] = allele
}

// InsertKmer records a k-mer, its copy-number probabilities, and the
// alleles it occurs on. Inserting a k-mer a second time replaces the
// previous entry.
func (site *Site) InsertKmer(kmer dna.Kmer, cn copynumber.CopyNumber, alleles []byte) {
	entry := &kmerEntry{cn: cn, alleles: append([]byte(nil), alleles...)}
	if _, ok := site.entries[kmer]; !ok {
		site.kmers = append(site.kmers, kmer)
	}
	site.entries[kmer] = entry
	for _, a := range alleles {
		site.InsertEmptyAllele(a)
	}
}

// Alleles returns the listed allele ids in ascending order.
func (site *Site) Alleles() []byte {
	return site.alleles
}

// NrPaths returns the number of paths.
func (site *Site) NrPaths() int {
	return len(site.paths)
}

// AlleleOnPath returns the allele carried by the given path.
func (site *Site) AlleleOnPath(path int) byte {
	return site.paths[path]
}

// Size returns the number of k-mers.
func (site *Site) Size() int {
	return len(site.kmers)
}

// Kmers returns the k-mers in insertion order.
func (site *Site) Kmers() []dna.Kmer {
	return site.kmers
}

// CopyNumber returns the copy-number probabilities of the given k-mer.
func (site *Site) CopyNumber(kmer dna.Kmer) (copynumber.CopyNumber, bool) {
	if entry, ok := site.entries[kmer]; ok {
		return entry.cn, true
	}
	return copynumber.CopyNumber{}, false
}

// AllelesOf returns the alleles the given k-mer occurs on.
func (site *Site) AllelesOf(kmer dna.Kmer) []byte {
	if entry, ok := site.entries[kmer]; ok {
		return entry.alleles
	}
	return nil
}

// KmerOnAllele returns true if the given k-mer occurs on the given allele.
func (site *Site) KmerOnAllele(kmer dna.Kmer, allele byte) bool {
	for _, a := range site.AllelesOf(kmer) {
		if a == allele {
			return true
		}
	}
	return false
}
