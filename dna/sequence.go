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

package dna

// Undefined is the symbol used for every position that is not one of
// A, C, G, or T.
const Undefined = 'N'

var baseTable [256]byte

func init() {
	for i := range baseTable {
		baseTable[i] = Undefined
	}
	for _, b := range []byte("ACGT") {
		baseTable[b] = b
		baseTable[b|0x20] = b
	}
}

// A Sequence is an ordered list of bases over {A,C,G,T}, with N
// marking undefined positions.
type Sequence []byte

// NewSequence creates a Sequence from the given string. Lower-case
// bases are converted to upper case, and IUPAC ambiguity codes, as
// well as any other non-ACGT byte, are converted to N.
func NewSequence(s string) Sequence {
	seq := make(Sequence, len(s))
	for i := 0; i < len(s); i++ {
		seq[i] = baseTable[s[i]]
	}
	return seq
}

// Normalize converts the given bytes in place the same way as
// NewSequence and returns them as a Sequence.
func Normalize(b []byte) Sequence {
	for i, c := range b {
		b[i] = baseTable[c]
	}
	return b
}

// IsBase returns true if b is one of A, C, G, or T (upper case).
func IsBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	default:
		return false
	}
}

// ContainsUndefined returns true if any position of the sequence is
// not one of A, C, G, or T.
func (seq Sequence) ContainsUndefined() bool {
	for _, b := range seq {
		if !IsBase(b) {
			return true
		}
	}
	return false
}

// Len returns the number of symbols in the sequence.
func (seq Sequence) Len() int {
	return len(seq)
}

func (seq Sequence) String() string {
	return string(seq)
}
