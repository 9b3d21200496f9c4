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

import (
	"errors"
	"fmt"
)

// Kmer is a 2-bit packed encoding of k consecutive bases. The first
// base of the window ends up in the most significant position, so
// the numeric order of Kmer values of equal k is the lexicographic
// order of the bases.
type Kmer uint64

// MaxKmerSize is the largest k that fits into a Kmer.
const MaxKmerSize = 32

// ErrInvalidKmerSize is returned for k-mer sizes that cannot be encoded.
var ErrInvalidKmerSize = errors.New("invalid k-mer size")

// A KmerCodec encodes and decodes k-mers of a fixed size k.
type KmerCodec struct {
	k    int
	mask Kmer
}

// NewKmerCodec returns a codec for k-mers of size k, with 1 <= k <= MaxKmerSize.
func NewKmerCodec(k int) (KmerCodec, error) {
	if k < 1 || k > MaxKmerSize {
		return KmerCodec{}, fmt.Errorf("%w %v, must be between 1 and %v", ErrInvalidKmerSize, k, MaxKmerSize)
	}
	return KmerCodec{k: k, mask: Kmer(^uint64(0) >> uint(64-2*k))}, nil
}

// K returns the k-mer size of the codec.
func (codec KmerCodec) K() int {
	return codec.k
}

func code(b byte) Kmer {
	switch b {
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	default:
		return 0
	}
}

var decodeTable = [4]byte{'A', 'C', 'G', 'T'}

// Encode returns the encoding of the given k-mer. It returns false if
// the length of kmer is not k or if it contains undefined bases.
func (codec KmerCodec) Encode(kmer []byte) (Kmer, bool) {
	if len(kmer) != codec.k {
		return 0, false
	}
	var result Kmer
	for _, b := range kmer {
		if !IsBase(b) {
			return 0, false
		}
		result = (result << 2) | code(b)
	}
	return result, true
}

// MustEncode is Encode with panics in place of failure.
func (codec KmerCodec) MustEncode(kmer string) Kmer {
	result, ok := codec.Encode([]byte(kmer))
	if !ok {
		panic(fmt.Sprintf("cannot encode %q as a %v-mer", kmer, codec.k))
	}
	return result
}

// String decodes the given k-mer.
func (codec KmerCodec) String(kmer Kmer) string {
	b := make([]byte, codec.k)
	for i := codec.k - 1; i >= 0; i-- {
		b[i] = decodeTable[kmer&3]
		kmer >>= 2
	}
	return string(b)
}

// ReverseComplement returns the encoding of the reverse complement of
// the given k-mer.
func (codec KmerCodec) ReverseComplement(kmer Kmer) (result Kmer) {
	for i := 0; i < codec.k; i++ {
		result = (result << 2) | (3 ^ (kmer & 3))
		kmer >>= 2
	}
	return result
}

// Canonical returns the smaller of the given k-mer and its reverse complement.
func (codec KmerCodec) Canonical(kmer Kmer) Kmer {
	if rc := codec.ReverseComplement(kmer); rc < kmer {
		return rc
	}
	return kmer
}

// A RollingKmer encodes the window of the last k consumed symbols,
// one symbol at a time.
//
// The debt is the number of defined bases that still have to be
// consumed before the window is valid again. It starts at k, and
// consuming an undefined symbol resets it, so no valid window ever
// contains an undefined symbol.
type RollingKmer struct {
	codec KmerCodec
	value Kmer
	debt  int
}

// NewRollingKmer returns an empty rolling window for the given codec.
func NewRollingKmer(codec KmerCodec) RollingKmer {
	return RollingKmer{codec: codec, debt: codec.k}
}

// Consume shifts the given symbol into the window.
func (r *RollingKmer) Consume(b byte) {
	if !IsBase(b) {
		r.debt = r.codec.k + 1
	}
	r.value = ((r.value << 2) | code(b)) & r.codec.mask
	if r.debt > 0 {
		r.debt--
	}
}

// Valid returns true if the last k consumed symbols are all defined bases.
func (r *RollingKmer) Valid() bool {
	return r.debt == 0
}

// Kmer returns the encoding of the current window. The result is only
// meaningful if Valid returns true.
func (r *RollingKmer) Kmer() Kmer {
	return r.value
}

// Each calls f for every window of k defined bases in seq, from left
// to right.
func (codec KmerCodec) Each(seq []byte, f func(Kmer)) {
	r := NewRollingKmer(codec)
	for _, b := range seq {
		r.Consume(b)
		if r.Valid() {
			f(r.value)
		}
	}
}
