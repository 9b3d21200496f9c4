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
	"bufio"
	"strconv"

	"github.com/exascience/elkmer/dna"
)

// SitesHeader is the column header line for the output of WriteSites.
const SitesHeader = "#chromosome\tindex\tposition\tcoverage\talleles\tpaths\tkmers\n"

func appendBytes(out []byte, values []byte) []byte {
	if len(values) == 0 {
		return append(out, '.')
	}
	for i, v := range values {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return out
}

// FormatSite appends the tab-separated representation of a site to
// out: one line for the site itself, followed by one line per k-mer
// that starts with a tab and lists the k-mer, its alleles, and its
// copy-number probabilities. Positions are written 1-based.
func FormatSite(out []byte, chromosome string, site *Site, codec dna.KmerCodec) []byte {
	out = append(out, chromosome...)
	out = append(out, '\t')
	out = strconv.AppendInt(out, int64(site.index), 10)
	out = append(out, '\t')
	out = strconv.AppendInt(out, int64(site.position+1), 10)
	out = append(out, '\t')
	out = strconv.AppendFloat(out, site.coverage, 'f', 2, 64)
	out = append(out, '\t')
	out = appendBytes(out, site.alleles)
	out = append(out, '\t')
	out = appendBytes(out, site.paths)
	out = append(out, '\t')
	out = strconv.AppendInt(out, int64(len(site.kmers)), 10)
	out = append(out, '\n')
	for _, kmer := range site.kmers {
		entry := site.entries[kmer]
		out = append(out, '\t')
		out = append(out, codec.String(kmer)...)
		out = append(out, '\t')
		out = appendBytes(out, entry.alleles)
		for _, p := range entry.cn.Probabilities() {
			out = append(out, '\t')
			out = strconv.AppendFloat(out, p, 'g', 6, 64)
		}
		out = append(out, '\n')
	}
	return out
}

// WriteSites writes all given sites of one chromosome.
func WriteSites(out *bufio.Writer, chromosome string, sites []*Site, codec dna.KmerCodec) error {
	var buf []byte
	for _, site := range sites {
		buf = FormatSite(buf[:0], chromosome, site, codec)
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
