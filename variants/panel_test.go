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

package variants

import (
	"errors"
	"strings"
	"testing"

	"github.com/exascience/elkmer/dna"
)

const testContig = "AAAAACCCCCGGGGGTTTTTACGTACGTAC"

func vcfLines(records ...string) string {
	lines := []string{
		"##fileformat=VCFv4.2",
		"##contig=<ID=chr1>",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2",
	}
	for _, r := range records {
		lines = append(lines, strings.Replace(r, " ", "\t", -1))
	}
	return strings.Join(lines, "\n") + "\n"
}

func newTestPanel(t *testing.T, vcf string) (*Panel, error) {
	reference := map[string]dna.Sequence{"chr1": dna.NewSequence(testContig)}
	panel, err := NewPanel(reference, 5)
	if err != nil {
		t.Fatal(err)
	}
	return panel, panel.ReadVCF(strings.NewReader(vcf))
}

func sequencesOf(v *Variant) (result []string) {
	for a := 0; a < v.NrAlleles(); a++ {
		result = append(result, v.AlleleSequence(byte(a)).String())
	}
	return result
}

func TestPanel(t *testing.T) {
	panel, err := newTestPanel(t, vcfLines(
		"chr1 3 . A G . PASS . GT 0|1 1|1",
		"chr1 6 . C T,G . PASS . GT:DP 0|0:3 2|0:4",
		"chr1 20 . T C . PASS . GT 0|0 0|0",
	))
	if err != nil {
		t.Fatal(err)
	}
	if panel.SizeOf("chr1") != 2 || panel.SizeOf("chr2") != 0 {
		t.Fatalf("wrong number of variants: %v", panel.SizeOf("chr1"))
	}
	if chroms := panel.Chromosomes(); len(chroms) != 1 || chroms[0] != "chr1" {
		t.Errorf("Chromosomes failed: %v", chroms)
	}
	if samples := panel.Samples(); len(samples) != 2 || samples[1] != "s2" {
		t.Errorf("Samples failed: %v", samples)
	}
	if panel.NrPaths() != 4 {
		t.Errorf("NrPaths failed: %v", panel.NrPaths())
	}

	merged := panel.Variant("chr1", 0)
	if merged.StartPosition() != 2 || merged.EndPosition() != 6 {
		t.Errorf("wrong interval for merged variant: %v-%v", merged.StartPosition(), merged.EndPosition())
	}
	if alleles := strings.Join(sequencesOf(merged), ","); alleles != "AAAAACCCCC,AAGAACCCCC,AAGAAGCCCC" {
		t.Errorf("wrong alleles for merged variant: %v", alleles)
	}
	for p, a := range []byte{0, 1, 2, 1} {
		if merged.AlleleOnPath(p) != a {
			t.Errorf("path %v carries %v, expected %v", p, merged.AlleleOnPath(p), a)
		}
	}
	paths := merged.PathsOfAlleles([]byte{1})
	if paths.Count() != 2 || !paths.Test(1) || !paths.Test(3) {
		t.Errorf("PathsOfAlleles failed: %v", paths)
	}
	if merged.PathsOfAlleles([]byte{0, 1, 2}).Count() != 4 {
		t.Error("PathsOfAlleles over all alleles failed")
	}

	single := panel.Variant("chr1", 1)
	if alleles := strings.Join(sequencesOf(single), ","); alleles != "TTTTTACGT,TTTTCACGT" {
		t.Errorf("wrong alleles for single variant: %v", alleles)
	}
	if single.PathsOfAlleles([]byte{1}).Count() != 0 {
		t.Error("allele without paths should have no paths")
	}

	if s := panel.LeftOverhang("chr1", 0, 4).String(); s != "AA" {
		t.Errorf("clipped left overhang: %v", s)
	}
	if s := panel.RightOverhang("chr1", 0, 4).String(); s != "CCCC" {
		t.Errorf("right overhang: %v", s)
	}
	if s := panel.LeftOverhang("chr1", 1, 3).String(); s != "TTT" {
		t.Errorf("left overhang: %v", s)
	}
	if s := panel.RightOverhang("chr1", 1, 100).String(); s != testContig[20:] {
		t.Errorf("clipped right overhang: %v", s)
	}
}

func TestPanelFlanks(t *testing.T) {
	panel, err := newTestPanel(t, vcfLines(
		"chr1 1 . A T . PASS . GT 0|1 0|0",
		"chr1 16 . T G . PASS . GT 1|1 0|1",
		"chr1 30 . C A . PASS . GT 0|0 1|0",
	))
	if err != nil {
		t.Fatal(err)
	}
	expected := [][]string{
		{"AAAAA", "TAAAA"},
		{"GGGGTTTTT", "GGGGGTTTT"},
		{"CGTAC", "CGTAA"},
	}
	for i, alleles := range expected {
		v := panel.Variant("chr1", i)
		if s := strings.Join(sequencesOf(v), ","); s != strings.Join(alleles, ",") {
			t.Errorf("variant %v: expected alleles %v, got %v", i, alleles, s)
		}
		if v.EndPosition()-v.StartPosition() != 1 {
			t.Errorf("variant %v: flanks must not change the interval", i)
		}
	}
	var sequences []string
	for _, seq := range panel.AlleleSequences() {
		sequences = append(sequences, seq.String())
	}
	if s := strings.Join(sequences, ","); s != "TAAAA,GGGGGTTTT,CGTAA" {
		t.Errorf("unexpected non-reference allele sequences %v", s)
	}
}

func TestPanelErrors(t *testing.T) {
	cases := map[string]string{
		"unphased":      vcfLines("chr1 3 . A G . PASS . GT 0/1 0|0"),
		"missing":       vcfLines("chr1 3 . A G . PASS . GT .|1 0|0"),
		"out of range":  vcfLines("chr1 3 . A G . PASS . GT 2|1 0|0"),
		"ref mismatch":  vcfLines("chr1 3 . C G . PASS . GT 0|1 0|0"),
		"unknown chrom": vcfLines("chr2 3 . A G . PASS . GT 0|1 0|0"),
		"symbolic":      vcfLines("chr1 3 . A <DEL> . PASS . GT 0|1 0|0"),
		"no GT":         vcfLines("chr1 3 . A G . PASS . DP 1 2"),
		"overlap":       vcfLines("chr1 3 . AAA G . PASS . GT 0|1 0|0", "chr1 4 . A G . PASS . GT 0|1 0|0"),
		"ploidy":        vcfLines("chr1 3 . A G . PASS . GT 0|1 0|0", "chr1 20 . T C . PASS . GT 0 0"),
		"no header":     "chr1\t3\t.\tA\tG\t.\tPASS\t.\n",
	}
	for name, vcf := range cases {
		if _, err := newTestPanel(t, vcf); err == nil {
			t.Errorf("%v: expected an error", name)
		} else if !errors.Is(err, ErrInvalidPanel) {
			t.Errorf("%v: unexpected error kind %v", name, err)
		}
	}
}

func TestNewVariant(t *testing.T) {
	alleles := []dna.Sequence{dna.NewSequence("A"), dna.NewSequence("C")}
	if _, err := NewVariant(0, 1, alleles, []byte{0, 2}); err == nil {
		t.Error("unknown allele on path should fail")
	}
	if _, err := NewVariant(0, 1, make([]dna.Sequence, MaxAlleles+1), nil); err == nil {
		t.Error("too many alleles should fail")
	}
	if _, err := NewPanel(nil, 0); err == nil {
		t.Error("NewPanel with k-mer size 0 should fail")
	}
}
