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
	"sort"

	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elkmer/dna"
)

const (
	minBatchSize = 1024
	maxBatchSize = 65536
)

// CountSequences counts all k-mers produced by the given source.
//
// The source is either a pargo pipeline.Source whose batches are
// []dna.Sequence values, or a []dna.Sequence slice. Batches are
// counted in parallel into local tables that are then merged
// sequentially.
func CountSequences(codec dna.KmerCodec, canonical bool, source interface{}) (*Table, error) {
	result := NewTable(codec, canonical)
	var p pipeline.Pipeline
	p.Source(source)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			local := NewTable(codec, canonical)
			for _, seq := range data.([]dna.Sequence) {
				local.AddSequence(seq)
			}
			return local
		})),
		pipeline.Seq(pipeline.Receive(func(_ int, data interface{}) interface{} {
			result.Merge(data.(*Table))
			return nil
		})),
	)
	p.Run()
	return result, p.Err()
}

// CountReference counts all k-mers of all contigs of the given
// reference, processing contigs in parallel.
func CountReference(codec dna.KmerCodec, canonical bool, reference map[string]dna.Sequence) *Table {
	contigs := make([]string, 0, len(reference))
	for contig := range reference {
		contigs = append(contigs, contig)
	}
	if len(contigs) == 0 {
		return NewTable(codec, canonical)
	}
	sort.Strings(contigs)
	return parallel.RangeReduce(0, len(contigs), 0, func(low, high int) interface{} {
		table := NewTable(codec, canonical)
		for _, contig := range contigs[low:high] {
			table.AddSequence(reference[contig])
		}
		return table
	}, func(left, right interface{}) interface{} {
		l := left.(*Table)
		r := right.(*Table)
		if l.Len() < r.Len() {
			l, r = r, l
		}
		l.Merge(r)
		return l
	}).(*Table)
}

// CountGenome counts the k-mers of a genome made of the contigs of a
// reference and of additional sequences, typically the non-reference
// alleles of a variant panel. The result is strand specific.
func CountGenome(codec dna.KmerCodec, reference map[string]dna.Sequence, alleles []dna.Sequence) (*Table, error) {
	table := CountReference(codec, false, reference)
	if len(alleles) == 0 {
		return table, nil
	}
	extra, err := CountSequences(codec, false, alleles)
	if err != nil {
		return nil, err
	}
	table.Merge(extra)
	return table, nil
}
