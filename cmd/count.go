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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/elkmer/dna"
	"github.com/exascience/elkmer/fasta"
	"github.com/exascience/elkmer/kmers"
)

// CountKmersHelp is the help string for this command.
const CountKmersHelp = "count-kmers parameters:\n" +
	"elkmer count-kmers input-file db-file\n" +
	"[--kmer-size k]\n" +
	"[--canonical]\n" +
	"[--reference]\n" +
	"[--histogram-size n]\n" +
	"[--log-path path]\n" +
	"[--timed]\n"

// histogramSize bounds the k-mer count histogram used for coverage estimation.
const histogramSize = 1000

func countReads(filename string, codec dna.KmerCodec, canonical bool) (*kmers.Table, error) {
	reads := fasta.OpenReads(filename)
	table, err := kmers.CountSequences(codec, canonical, reads)
	if cerr := reads.Close(); err == nil {
		err = cerr
	}
	return table, err
}

// CountKmers implements the elkmer count-kmers command.
func CountKmers() error {
	var (
		kmerSize, histogram int
		canonical, reference, timed bool
		logPath                     string
	)

	var flags flag.FlagSet
	flags.IntVar(&kmerSize, "kmer-size", 31, "length of the counted k-mers")
	flags.BoolVar(&canonical, "canonical", false, "count k-mers and their reverse complements together")
	flags.BoolVar(&reference, "reference", false, "count the contigs of a FASTA or .elfasta reference instead of reads")
	flags.IntVar(&histogram, "histogram-size", histogramSize, "number of histogram entries used to estimate the coverage")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	parseFlags(flags, 4, CountKmersHelp)

	input := getFilename(os.Args[2], CountKmersHelp)
	output := getFilename(os.Args[3], CountKmersHelp)

	setLogOutput(logPath)

	if !checkExist("", input) || !checkCreate("", output) || !checkKmerSize(kmerSize) {
		fmt.Fprint(os.Stderr, CountKmersHelp)
		os.Exit(1)
	}
	if histogram < 2 {
		return fmt.Errorf("invalid histogram size %v", histogram)
	}

	codec, err := dna.NewKmerCodec(kmerSize)
	if err != nil {
		return err
	}

	var table *kmers.Table
	if reference {
		timedRun(timed, "", "Counting reference k-mers.", 1, func() {
			ref, release := loadReference(input)
			defer release()
			table = kmers.CountReference(codec, canonical, ref)
		})
	} else {
		timedRun(timed, "", "Counting read k-mers.", 1, func() {
			table, err = countReads(input, codec, canonical)
		})
		if err != nil {
			return err
		}
		if coverage := kmers.EstimateCoverage(table.Histogram(histogram)); coverage > 0 {
			log.Println("Estimated k-mer coverage:", coverage)
		} else {
			log.Println("Warning: Could not estimate the k-mer coverage from the read k-mer histogram.")
		}
	}
	log.Printf("Counted %v distinct %v-mers.\n", table.Len(), kmerSize)

	timedRun(timed, "", "Writing k-mer count database.", 2, func() {
		err = kmers.WriteDB(output, table)
	})
	return err
}
