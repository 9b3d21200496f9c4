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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/elkmer/dna"
)

// A Panel is a Reader over a reference genome and the phased
// genotypes of a set of panel samples, read from a VCF file.
//
// Every sample contributes one path per haplotype. Records that are
// closer than the k-mer size to the previous record on the same
// chromosome are merged into a single variant, whose alleles are the
// distinct haplotype sequences over the merged interval, so that no
// k-mer spans two variants. Allele sequences are extended with up to
// k-1 reference bases on each side, so every k-mer overlapping the
// variant is part of each allele.
type Panel struct {
	kmerSize    int
	reference   map[string]dna.Sequence
	chromosomes []string
	variants    map[string][]*Variant
	samples     []string
	nrPaths     int
}

// A record is a parsed VCF line. Allele 0 is the reference allele.
type record struct {
	chrom      string
	start, end int
	alleles    []dna.Sequence
	paths      []byte
}

// NewPanel creates an empty panel over the given reference.
func NewPanel(reference map[string]dna.Sequence, kmerSize int) (*Panel, error) {
	if kmerSize < 1 {
		return nil, fmt.Errorf("%w: k-mer size %v", ErrInvalidPanel, kmerSize)
	}
	return &Panel{
		kmerSize:  kmerSize,
		reference: reference,
		variants:  make(map[string][]*Variant),
		nrPaths:   -1,
	}, nil
}

// KmerSize implements the Reader interface.
func (panel *Panel) KmerSize() int {
	return panel.kmerSize
}

// Chromosomes returns the chromosomes with variants, in VCF order.
func (panel *Panel) Chromosomes() []string {
	return panel.chromosomes
}

// Samples returns the sample names from the VCF header.
func (panel *Panel) Samples() []string {
	return panel.samples
}

// NrPaths returns the number of paths per variant.
func (panel *Panel) NrPaths() int {
	if panel.nrPaths < 0 {
		return 0
	}
	return panel.nrPaths
}

// SizeOf implements the Reader interface.
func (panel *Panel) SizeOf(chromosome string) int {
	return len(panel.variants[chromosome])
}

// AlleleSequences returns the sequences of all non-reference alleles
// of all variants, in chromosome and variant order. Together with the
// reference, they make up the genome that k-mers must be unique in.
func (panel *Panel) AlleleSequences() []dna.Sequence {
	var result []dna.Sequence
	for _, chromosome := range panel.chromosomes {
		for _, v := range panel.variants[chromosome] {
			result = append(result, v.alleles[1:]...)
		}
	}
	return result
}

// Variant implements the Reader interface.
func (panel *Panel) Variant(chromosome string, index int) *Variant {
	return panel.variants[chromosome][index]
}

// LeftOverhang implements the Reader interface.
func (panel *Panel) LeftOverhang(chromosome string, index, length int) dna.Sequence {
	end := panel.variants[chromosome][index].start
	start := end - length
	if start < 0 {
		start = 0
	}
	return panel.reference[chromosome][start:end]
}

// RightOverhang implements the Reader interface.
func (panel *Panel) RightOverhang(chromosome string, index, length int) dna.Sequence {
	contig := panel.reference[chromosome]
	start := panel.variants[chromosome][index].end
	end := start + length
	if end > len(contig) {
		end = len(contig)
	}
	return contig[start:end]
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// ReadVCF adds the variants of a VCF file to the panel. Records must
// be sorted by position within each chromosome, must not overlap,
// and must carry phased genotypes without missing entries for every
// sample.
func (panel *Panel) ReadVCF(r io.Reader) error {
	reader := bufio.NewReader(r)
	var cluster []*record
	seen := make(map[string]bool)
	headerSeen := false
	for lineNr := 1; ; lineNr++ {
		line, err := getLine(reader)
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		switch {
		case line == "", strings.HasPrefix(line, "##"):
			continue
		case strings.HasPrefix(line, "#"):
			columns := strings.Split(line, "\t")
			if len(columns) > 9 {
				panel.samples = append([]string(nil), columns[9:]...)
			}
			headerSeen = true
			continue
		case !headerSeen:
			return fmt.Errorf("%w: missing #CHROM header line before line %v", ErrInvalidPanel, lineNr)
		}
		rec, err := panel.parseRecord(strings.Split(line, "\t"))
		if err != nil {
			return fmt.Errorf("%w, in VCF line %v", err, lineNr)
		}
		if n := len(cluster); n > 0 {
			last := cluster[n-1]
			if rec.chrom == last.chrom {
				if rec.start < last.end {
					return fmt.Errorf("%w: variant at %v:%v overlaps or precedes the previous variant, in VCF line %v", ErrInvalidPanel, rec.chrom, rec.start+1, lineNr)
				}
				if rec.start-last.end < panel.kmerSize {
					cluster = append(cluster, rec)
					continue
				}
			} else if seen[rec.chrom] {
				return fmt.Errorf("%w: chromosome %v is not contiguous, in VCF line %v", ErrInvalidPanel, rec.chrom, lineNr)
			}
			if err := panel.addCluster(cluster); err != nil {
				return err
			}
		}
		seen[rec.chrom] = true
		cluster = []*record{rec}
	}
	if len(cluster) > 0 {
		return panel.addCluster(cluster)
	}
	return nil
}

func (panel *Panel) parseRecord(fields []string) (*record, error) {
	if len(fields) < 8 {
		return nil, fmt.Errorf("%w: too few columns", ErrInvalidPanel)
	}
	if len(fields) != 9+len(panel.samples) && !(len(fields) == 8 && len(panel.samples) == 0) {
		return nil, fmt.Errorf("%w: expected %v sample columns", ErrInvalidPanel, len(panel.samples))
	}
	rec := &record{chrom: fields[0]}
	pos, err := strconv.Atoi(fields[1])
	if err != nil || pos < 1 {
		return nil, fmt.Errorf("%w: invalid position %v", ErrInvalidPanel, fields[1])
	}
	rec.start = pos - 1
	ref := dna.NewSequence(fields[3])
	rec.end = rec.start + len(ref)
	contig, ok := panel.reference[rec.chrom]
	if !ok {
		return nil, fmt.Errorf("%w: chromosome %v not in the reference", ErrInvalidPanel, rec.chrom)
	}
	if rec.end > len(contig) || !bytes.Equal(contig[rec.start:rec.end], ref) {
		return nil, fmt.Errorf("%w: reference allele %v does not match the reference at %v:%v", ErrInvalidPanel, fields[3], rec.chrom, pos)
	}
	rec.alleles = append(rec.alleles, ref)
	if fields[4] != "." {
		for _, alt := range strings.Split(fields[4], ",") {
			if strings.ContainsAny(alt, "<>[]*") {
				return nil, fmt.Errorf("%w: symbolic allele %v is not supported", ErrInvalidPanel, alt)
			}
			rec.alleles = append(rec.alleles, dna.NewSequence(alt))
		}
	}
	if len(rec.alleles) > MaxAlleles {
		return nil, fmt.Errorf("%w: more than %v alleles", ErrInvalidPanel, MaxAlleles)
	}
	if len(panel.samples) == 0 {
		return rec, panel.checkNrPaths(0)
	}
	gtIndex := -1
	for i, key := range strings.Split(fields[8], ":") {
		if key == "GT" {
			gtIndex = i
			break
		}
	}
	if gtIndex < 0 {
		return nil, fmt.Errorf("%w: missing GT field", ErrInvalidPanel)
	}
	for s, field := range fields[9:] {
		entries := strings.Split(field, ":")
		if gtIndex >= len(entries) {
			return nil, fmt.Errorf("%w: missing genotype for sample %v", ErrInvalidPanel, panel.samples[s])
		}
		gt := entries[gtIndex]
		if strings.ContainsRune(gt, '/') {
			return nil, fmt.Errorf("%w: unphased genotype %v for sample %v", ErrInvalidPanel, gt, panel.samples[s])
		}
		for _, allele := range strings.Split(gt, "|") {
			a, err := strconv.Atoi(allele)
			if err != nil || a < 0 || a >= len(rec.alleles) {
				return nil, fmt.Errorf("%w: invalid or missing genotype %v for sample %v", ErrInvalidPanel, gt, panel.samples[s])
			}
			rec.paths = append(rec.paths, byte(a))
		}
	}
	return rec, panel.checkNrPaths(len(rec.paths))
}

func (panel *Panel) checkNrPaths(n int) error {
	if panel.nrPaths < 0 {
		panel.nrPaths = n
	} else if panel.nrPaths != n {
		return fmt.Errorf("%w: %v paths, previous variants have %v", ErrInvalidPanel, n, panel.nrPaths)
	}
	return nil
}

func (panel *Panel) addCluster(cluster []*record) error {
	first, last := cluster[0], cluster[len(cluster)-1]
	contig := panel.reference[first.chrom]
	alleles, paths := first.alleles, first.paths
	if len(cluster) > 1 {
		alleles = []dna.Sequence{contig[first.start:last.end]}
		ids := map[string]byte{string(alleles[0]): 0}
		paths = make([]byte, panel.nrPaths)
		for p := range paths {
			var seq dna.Sequence
			pos := first.start
			for _, rec := range cluster {
				seq = append(seq, contig[pos:rec.start]...)
				seq = append(seq, rec.alleles[rec.paths[p]]...)
				pos = rec.end
			}
			id, ok := ids[string(seq)]
			if !ok {
				if len(alleles) == MaxAlleles {
					return fmt.Errorf("%w: more than %v distinct haplotypes at %v:%v", ErrInvalidPanel, MaxAlleles, first.chrom, first.start+1)
				}
				id = byte(len(alleles))
				ids[string(seq)] = id
				alleles = append(alleles, seq)
			}
			paths[p] = id
		}
	}
	flankStart := first.start - (panel.kmerSize - 1)
	if flankStart < 0 {
		flankStart = 0
	}
	flankEnd := last.end + panel.kmerSize - 1
	if flankEnd > len(contig) {
		flankEnd = len(contig)
	}
	flanked := make([]dna.Sequence, len(alleles))
	for a, allele := range alleles {
		seq := make(dna.Sequence, 0, flankEnd-flankStart-(last.end-first.start)+len(allele))
		seq = append(seq, contig[flankStart:first.start]...)
		seq = append(seq, allele...)
		flanked[a] = append(seq, contig[last.end:flankEnd]...)
	}
	v, err := NewVariant(first.start, last.end, flanked, paths)
	if err != nil {
		return err
	}
	if _, ok := panel.variants[first.chrom]; !ok {
		panel.chromosomes = append(panel.chromosomes, first.chrom)
	}
	panel.variants[first.chrom] = append(panel.variants[first.chrom], v)
	return nil
}
