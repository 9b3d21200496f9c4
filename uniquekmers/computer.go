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

// Package uniquekmers determines, for every variant site of a panel,
// the k-mers that tell its alleles apart, and turns their read counts
// into copy-number probabilities for genotyping.
package uniquekmers

import (
	"errors"
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elkmer/copynumber"
	"github.com/exascience/elkmer/dna"
	"github.com/exascience/elkmer/kmers"
	"github.com/exascience/elkmer/variants"
)

// MaxKmersPerSite bounds the number of k-mers accepted for one site.
const MaxKmersPerSite = 300

// ErrInvalidConfiguration is returned for unusable parameters.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// A Computer computes Site records for the variants of one chromosome.
type Computer struct {
	genomic      kmers.Counter
	reads        kmers.Counter
	panel        variants.Reader
	chromosome   string
	kmerCoverage float64
	codec        dna.KmerCodec
}

// NewComputer creates a Computer.
//
// genomic counts k-mers over the reference genome, reads counts them
// over the sample's reads. kmerCoverage is the nominal k-mer coverage
// of the reads. Both counters are queried concurrently.
func NewComputer(genomic, reads kmers.Counter, panel variants.Reader, chromosome string, kmerCoverage float64) (*Computer, error) {
	if genomic == nil || reads == nil {
		return nil, fmt.Errorf("%w: missing k-mer counter", ErrInvalidConfiguration)
	}
	if panel == nil {
		return nil, fmt.Errorf("%w: missing variant panel", ErrInvalidConfiguration)
	}
	if !(kmerCoverage > 0) || math.IsInf(kmerCoverage, 0) {
		return nil, fmt.Errorf("%w: k-mer coverage %v must be positive", ErrInvalidConfiguration, kmerCoverage)
	}
	codec, err := dna.NewKmerCodec(panel.KmerSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return &Computer{
		genomic:      genomic,
		reads:        reads,
		panel:        panel,
		chromosome:   chromosome,
		kmerCoverage: kmerCoverage,
		codec:        codec,
	}, nil
}

// Codec returns the codec used for the k-mers of the records.
func (c *Computer) Codec() dna.KmerCodec {
	return c.codec
}

// Compute returns one Site per variant of the chromosome, in variant
// order. If regularization is positive, copy-number probabilities are
// normalized and smoothed towards uniform with that constant.
// Sites are processed in parallel.
func (c *Computer) Compute(regularization float64) ([]*Site, error) {
	if !(regularization >= 0) || math.IsInf(regularization, 0) {
		return nil, fmt.Errorf("%w: regularization constant %v must not be negative", ErrInvalidConfiguration, regularization)
	}
	n := c.panel.SizeOf(c.chromosome)
	result := make([]*Site, n)
	if n == 0 {
		return result, nil
	}
	parallel.Range(0, n, 0, func(low, high int) {
		for index := low; index < high; index++ {
			result[index] = c.ComputeSite(index, regularization)
		}
	})
	return result, nil
}

func skeleton(variant *variants.Variant, index int) *Site {
	site := NewSite(index, variant.StartPosition())
	for p := 0; p < variant.NrPaths(); p++ {
		a := variant.AlleleOnPath(p)
		site.InsertEmptyAllele(a)
		site.InsertPath(p, a)
	}
	return site
}

// ComputeSite computes the Site of the variant with the given index.
func (c *Computer) ComputeSite(index int, regularization float64) *Site {
	coverage := c.LocalCoverage(index, 2*c.codec.K())
	model := copynumber.NewModel(coverage)
	variant := c.panel.Variant(c.chromosome, index)
	site := skeleton(variant, index)
	site.SetCoverage(coverage)

	occurrences := make(kmers.Occurrences)
	for a := 0; a < variant.NrAlleles(); a++ {
		allele := variant.AlleleSequence(byte(a))
		if allele.ContainsUndefined() {
			// no k-mers at all for this site, not just for this allele
			return site
		}
		kmers.ExtractUnique(allele, byte(a), c.codec, occurrences)
	}

	nrPaths := uint(variant.NrPaths())
	accepted := 0
	for _, kmer := range occurrences.SortedKmers() {
		if accepted >= MaxKmersPerSite {
			break
		}
		alleles := occurrences[kmer]
		// the k-mer must not occur anywhere else in the genome
		if c.genomic.Abundance(kmer) != uint64(len(alleles)) {
			continue
		}
		readCount := c.reads.Abundance(kmer)
		if paths := variant.PathsOfAlleles(alleles).Count(); paths == 0 || paths == nrPaths {
			continue
		}
		if float64(readCount) > 2*c.kmerCoverage {
			continue
		}
		cn := model.CopyNumber(readCount)
		if !cn.Informative() {
			continue
		}
		accepted++
		if regularization > 0 {
			p := cn.Probabilities()
			cn = copynumber.NewRegularized(p[0], p[1], p[2], regularization)
		}
		site.InsertKmer(kmer, cn, alleles)
	}
	return site
}

// ComputeEmpty returns one Site per variant of the chromosome with
// only the alleles and paths filled in, for chromosomes where read
// evidence should not be used.
func (c *Computer) ComputeEmpty() []*Site {
	return EmptySites(c.panel, c.chromosome)
}

// EmptySites is ComputeEmpty without the k-mer counters, so no counts
// are needed to produce the skeleton records.
func EmptySites(panel variants.Reader, chromosome string) []*Site {
	n := panel.SizeOf(chromosome)
	result := make([]*Site, n)
	for index := 0; index < n; index++ {
		result[index] = skeleton(panel.Variant(chromosome, index), index)
	}
	return result
}

// LocalCoverage estimates the read coverage around the variant with
// the given index from the unique k-mers of up to length bases on
// either side. Only k-mers that occur once in the genome and whose
// read counts are within a factor of 4 of the nominal coverage are
// used. If there are none, the nominal coverage is returned.
func (c *Computer) LocalCoverage(index, length int) float64 {
	occurrences := make(kmers.Occurrences)
	kmers.ExtractUnique(c.panel.LeftOverhang(c.chromosome, index, length), 0, c.codec, occurrences)
	kmers.ExtractUnique(c.panel.RightOverhang(c.chromosome, index, length), 1, c.codec, occurrences)

	var total, n float64
	for _, kmer := range occurrences.SortedKmers() {
		if c.genomic.Abundance(kmer) != 1 {
			continue
		}
		count := float64(c.reads.Abundance(kmer))
		if count < c.kmerCoverage/4 || count > c.kmerCoverage*4 {
			continue
		}
		total += count
		n++
	}
	if n > 0 && total > 0 {
		return total / n
	}
	return c.kmerCoverage
}
