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
	"path/filepath"
	"testing"

	"github.com/exascience/elkmer/dna"
)

func newCodec(t *testing.T, k int) dna.KmerCodec {
	codec, err := dna.NewKmerCodec(k)
	if err != nil {
		t.Fatal(err)
	}
	return codec
}

func TestExtractUniqueShort(t *testing.T) {
	codec := newCodec(t, 5)
	occurrences := make(Occurrences)
	for _, s := range []string{"", "A", "ACGT"} {
		ExtractUnique(dna.NewSequence(s), 0, codec, occurrences)
	}
	if len(occurrences) != 0 {
		t.Errorf("sequences shorter than k should not produce k-mers: %v", occurrences)
	}
}

func TestExtractUniqueMultiplicity(t *testing.T) {
	codec := newCodec(t, 3)
	occurrences := make(Occurrences)
	// ACG occurs twice, all other 3-mers once
	ExtractUnique(dna.NewSequence("ACGTTACG"), 7, codec, occurrences)
	if _, ok := occurrences[codec.MustEncode("ACG")]; ok {
		t.Error("k-mer occurring twice should not be unique")
	}
	for _, s := range []string{"CGT", "GTT", "TTA", "TAC"} {
		owners, ok := occurrences[codec.MustEncode(s)]
		if !ok {
			t.Errorf("unique k-mer %v missing", s)
			continue
		}
		if len(owners) != 1 || owners[0] != 7 {
			t.Errorf("wrong owners for %v: %v", s, owners)
		}
	}
	if len(occurrences) != 4 {
		t.Errorf("wrong number of unique k-mers: %v", len(occurrences))
	}
}

func TestExtractUniqueUndefined(t *testing.T) {
	codec := newCodec(t, 3)
	occurrences := make(Occurrences)
	ExtractUnique(dna.NewSequence("ACGTNACGT"), 0, codec, occurrences)
	if len(occurrences) != 0 {
		t.Errorf("ACG and CGT occur twice, nothing spanning N may be counted: %v", occurrences)
	}
	ExtractUnique(dna.NewSequence("ACGTNTTT"), 1, codec, occurrences)
	for _, s := range []string{"GTN", "TNT", "NTT"} {
		if kmer, ok := codec.Encode([]byte(s)); ok {
			if _, found := occurrences[kmer]; found {
				t.Errorf("window %v spanning N was counted", s)
			}
		}
	}
	// N is shifted in like A, so the windows it pads must not show up
	if _, ok := occurrences[codec.MustEncode("TTT")]; !ok {
		t.Error("TTT missing")
	}
	for _, s := range []string{"GTA", "TAT", "ATT"} {
		if _, ok := occurrences[codec.MustEncode(s)]; ok {
			t.Errorf("window %v spanning N was counted", s)
		}
	}
}

func TestExtractUniqueSharedTable(t *testing.T) {
	codec := newCodec(t, 4)
	occurrences := make(Occurrences)
	ExtractUnique(dna.NewSequence("AAAACCCC"), 0, codec, occurrences)
	ExtractUnique(dna.NewSequence("AAAAGGGG"), 1, codec, occurrences)
	if owners := occurrences[codec.MustEncode("AAAA")]; len(owners) != 2 || owners[0] != 0 || owners[1] != 1 {
		t.Errorf("shared k-mer should have both owners: %v", owners)
	}
	if owners := occurrences[codec.MustEncode("CCCC")]; len(owners) != 1 || owners[0] != 0 {
		t.Errorf("wrong owners for CCCC: %v", owners)
	}
	if owners := occurrences[codec.MustEncode("GGGG")]; len(owners) != 1 || owners[0] != 1 {
		t.Errorf("wrong owners for GGGG: %v", owners)
	}
	kmers := occurrences.SortedKmers()
	for i := 1; i < len(kmers); i++ {
		if kmers[i-1] >= kmers[i] {
			t.Error("SortedKmers not sorted")
		}
	}
}

func TestTable(t *testing.T) {
	codec := newCodec(t, 3)
	table := NewTable(codec, false)
	table.AddSequence(dna.NewSequence("AAAAC"))
	if n := table.Abundance(codec.MustEncode("AAA")); n != 2 {
		t.Errorf("Abundance of AAA: %v", n)
	}
	if n := table.Abundance(codec.MustEncode("GTT")); n != 0 {
		t.Errorf("Abundance of reverse complement in non-canonical table: %v", n)
	}
	if n := table.Abundance(codec.MustEncode("CCC")); n != 0 {
		t.Errorf("Abundance of unseen k-mer: %v", n)
	}
	canonical := NewTable(codec, true)
	canonical.AddSequence(dna.NewSequence("AAAAC"))
	canonical.AddSequence(dna.NewSequence("GTT"))
	if n := canonical.Abundance(codec.MustEncode("AAC")); n != 2 {
		t.Errorf("canonical Abundance of AAC: %v", n)
	}
	if n := canonical.Abundance(codec.MustEncode("GTT")); n != 2 {
		t.Errorf("canonical Abundance of GTT: %v", n)
	}
	other := NewTable(codec, false)
	other.Add(codec.MustEncode("AAA"), 3)
	table.Merge(other)
	if n := table.Abundance(codec.MustEncode("AAA")); n != 5 {
		t.Errorf("Merge failed: %v", n)
	}
	histogram := table.Histogram(3)
	if histogram[1] != 1 || histogram[3] != 1 {
		t.Errorf("Histogram failed: %v", histogram)
	}
}

func TestCountSequences(t *testing.T) {
	codec := newCodec(t, 4)
	var reads []dna.Sequence
	for i := 0; i < 5000; i++ {
		reads = append(reads, dna.NewSequence("ACGTACGT"))
	}
	table, err := CountSequences(codec, false, reads)
	if err != nil {
		t.Fatal(err)
	}
	if n := table.Abundance(codec.MustEncode("ACGT")); n != 10000 {
		t.Errorf("Abundance of ACGT: %v", n)
	}
	if n := table.Abundance(codec.MustEncode("CGTA")); n != 5000 {
		t.Errorf("Abundance of CGTA: %v", n)
	}
}

func TestCountReference(t *testing.T) {
	codec := newCodec(t, 3)
	reference := map[string]dna.Sequence{
		"chr1": dna.NewSequence("AAAA"),
		"chr2": dna.NewSequence("AAACNCCC"),
	}
	table := CountReference(codec, false, reference)
	if n := table.Abundance(codec.MustEncode("AAA")); n != 3 {
		t.Errorf("Abundance of AAA: %v", n)
	}
	if n := table.Abundance(codec.MustEncode("CCC")); n != 1 {
		t.Errorf("Abundance of CCC: %v", n)
	}
	if table.Len() != 3 {
		t.Errorf("wrong number of k-mers: %v", table.Len())
	}
	if CountReference(codec, false, nil).Len() != 0 {
		t.Error("empty reference failed")
	}
}

func TestCountGenome(t *testing.T) {
	codec := newCodec(t, 3)
	reference := map[string]dna.Sequence{"chr1": dna.NewSequence("AACAA")}
	alleles := []dna.Sequence{dna.NewSequence("AAGAA"), dna.NewSequence("AAGAT")}
	table, err := CountGenome(codec, reference, alleles)
	if err != nil {
		t.Fatal(err)
	}
	for kmer, expected := range map[string]uint64{"AAC": 1, "CAA": 1, "AAG": 2, "AGA": 2, "GAA": 1, "GAT": 1, "TTC": 0} {
		if n := table.Abundance(codec.MustEncode(kmer)); n != expected {
			t.Errorf("Abundance of %v: %v, expected %v", kmer, n, expected)
		}
	}
	if table.Canonical() {
		t.Error("genome counts must be strand specific")
	}
	table, err = CountGenome(codec, reference, nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 3 {
		t.Errorf("genome without alleles: %v k-mers", table.Len())
	}
}

func TestCounters(t *testing.T) {
	codec := newCodec(t, 3)
	first := NewTable(codec, false)
	first.AddSequence(dna.NewSequence("ACGT"))
	second := NewTable(codec, false)
	second.AddSequence(dna.NewSequence("ACGA"))
	counters := Counters{first, second}
	if n := counters.Abundance(codec.MustEncode("ACG")); n != 2 {
		t.Errorf("Abundance of ACG: %v", n)
	}
	if n := counters.Abundance(codec.MustEncode("CGA")); n != 1 {
		t.Errorf("Abundance of CGA: %v", n)
	}
	if n := (Counters{}).Abundance(codec.MustEncode("CGA")); n != 0 {
		t.Errorf("Abundance in no counters: %v", n)
	}
}

func TestEstimateCoverage(t *testing.T) {
	histogram := []uint64{0, 1000, 300, 20, 40, 90, 150, 80, 30, 5, 12345}
	if c := EstimateCoverage(histogram); c != 6 {
		t.Errorf("EstimateCoverage: %v", c)
	}
	if c := EstimateCoverage([]uint64{0, 100, 50, 10, 1, 0}); c != 0 {
		t.Errorf("EstimateCoverage without peak: %v", c)
	}
	if c := EstimateCoverage(nil); c != 0 {
		t.Errorf("EstimateCoverage of nil: %v", c)
	}
}

func TestCountDB(t *testing.T) {
	codec := newCodec(t, 32)
	table := NewTable(codec, true)
	seq := dna.NewSequence("TTTTTTTTTTTTTTTTTTTTTTTTTTTTTTTTGACA")
	table.AddSequence(seq)
	table.AddSequence(seq)
	filename := filepath.Join(t.TempDir(), "counts.db")
	if err := WriteDB(filename, table); err != nil {
		t.Fatal(err)
	}
	cdb, err := OpenDB(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := cdb.Close(); err != nil {
			t.Error(err)
		}
	}()
	if cdb.Codec().K() != 32 || !cdb.Canonical() {
		t.Error("count db meta data lost")
	}
	count := 0
	table.Range(func(kmer dna.Kmer, n uint64) bool {
		count++
		if m := cdb.Abundance(kmer); m != n {
			t.Errorf("Abundance of %v: %v, expected %v", codec.String(kmer), m, n)
		}
		return true
	})
	if count != table.Len() {
		t.Error("Range stopped early")
	}
	polyA := codec.MustEncode("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	if n := cdb.Abundance(polyA); n != 2 {
		t.Errorf("canonical lookup of poly-A: %v", n)
	}
	if n := cdb.Abundance(codec.MustEncode("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")); n != 0 {
		t.Errorf("Abundance of unseen k-mer: %v", n)
	}
	if _, err := OpenDB(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("OpenDB of a missing file should fail")
	}
}
