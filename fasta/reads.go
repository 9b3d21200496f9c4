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

package fasta

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/exascience/elkmer/dna"
	"github.com/exascience/elkmer/internal"
	"github.com/exascience/elkmer/utils"
)

// ErrInvalidReads is returned when a reads file is neither valid
// FASTA nor valid FASTQ.
var ErrInvalidReads = errors.New("invalid reads file")

// ReadsFile is a pargo pipeline.Source for the sequences in a FASTA or
// FASTQ file. Each batch is a []dna.Sequence of normalized sequences.
// FASTA records may span multiple lines, FASTQ records take exactly
// four lines.
type ReadsFile struct {
	file    *os.File
	reader  *bufio.Reader
	pending []byte
	lineNr  int
	data    []dna.Sequence
	err     error
}

// NewReads creates a ReadsFile that reads from r, which may be gzip
// compressed.
func NewReads(r io.Reader) *ReadsFile {
	return &ReadsFile{reader: bufio.NewReader(utils.HandleGzip(bufio.NewReader(r)))}
}

// OpenReads opens a FASTA or FASTQ file.
func OpenReads(filename string) *ReadsFile {
	file := internal.FileOpen(filename)
	reads := NewReads(file)
	reads.file = file
	return reads
}

// Close closes the underlying file, if any.
func (f *ReadsFile) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Err implements the method of the pipeline.Source interface.
func (f *ReadsFile) Err() error {
	return f.err
}

// Prepare implements the method of the pipeline.Source interface.
func (f *ReadsFile) Prepare(_ context.Context) int {
	return -1
}

func (f *ReadsFile) readLine() ([]byte, bool) {
	if f.pending != nil {
		line := f.pending
		f.pending = nil
		return line, true
	}
	line, err := f.reader.ReadBytes('\n')
	if err != nil {
		if err != io.EOF {
			f.err = err
			return nil, false
		}
		if len(line) == 0 {
			return nil, false
		}
	}
	f.lineNr++
	return bytes.TrimRight(line, "\r\n"), true
}

func (f *ReadsFile) fail(format string, v ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf("%w: line %v: %v", ErrInvalidReads, f.lineNr, fmt.Sprintf(format, v...))
	}
}

func (f *ReadsFile) next() (dna.Sequence, bool) {
	header, ok := f.readLine()
	for ok && len(header) == 0 {
		header, ok = f.readLine()
	}
	if !ok {
		return nil, false
	}
	switch header[0] {
	case '>':
		var seq []byte
		for {
			line, ok := f.readLine()
			if !ok {
				break
			}
			if len(line) > 0 && line[0] == '>' {
				f.pending = line
				break
			}
			seq = append(seq, line...)
		}
		return dna.Normalize(seq), f.err == nil
	case '@':
		seq, ok := f.readLine()
		if !ok {
			f.fail("missing sequence")
			return nil, false
		}
		plus, ok := f.readLine()
		if !ok || len(plus) == 0 || plus[0] != '+' {
			f.fail("missing separator")
			return nil, false
		}
		qual, ok := f.readLine()
		if !ok || len(qual) != len(seq) {
			f.fail("quality string does not match sequence length")
			return nil, false
		}
		return dna.Normalize(seq), true
	default:
		f.fail("unexpected record start %q", header[0])
		return nil, false
	}
}

// Fetch implements the method of the pipeline.Source interface.
func (f *ReadsFile) Fetch(size int) (fetched int) {
	if f.err != nil {
		f.data = nil
		return 0
	}
	data := make([]dna.Sequence, 0, size)
	for fetched < size {
		seq, ok := f.next()
		if !ok {
			break
		}
		data = append(data, seq)
		fetched++
	}
	if f.err != nil {
		f.data = nil
		return 0
	}
	f.data = data
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (f *ReadsFile) Data() interface{} {
	return f.data
}
