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
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/exascience/elkmer/dna"
	"github.com/exascience/elkmer/internal"
	"github.com/exascience/elkmer/kmers"
	"github.com/exascience/elkmer/uniquekmers"
	"github.com/exascience/elkmer/utils"
	"github.com/exascience/elkmer/variants"
)

// UniqueKmersHelp is the help string for this command.
const UniqueKmersHelp = "unique-kmers parameters:\n" +
	"elkmer unique-kmers reference-file vcf-file output-file\n" +
	"--reads file | --read-counts db-file\n" +
	"[--genome-counts db-file]\n" +
	"[--kmer-size k]\n" +
	"[--canonical]\n" +
	"[--coverage c]\n" +
	"[--regularization r]\n" +
	"[--chromosomes chr1,chr2,...]\n" +
	"[--empty]\n" +
	"[--log-path path]\n" +
	"[--timed]\n" +
	"[--profile file]\n"

type uniqueKmersConfig struct {
	reference, vcf, output          string
	reads, readCounts, genomeCounts string
	kmerSize                        int
	canonical, empty, timed         bool
	coverage, regularization        float64
	chromosomes, logPath, profile   string
}

func (config *uniqueKmersConfig) check() bool {
	if !checkExist("", config.reference) || !checkExist("", config.vcf) || !checkCreate("", config.output) {
		return false
	}
	if !config.empty && (config.reads == "") == (config.readCounts == "") {
		log.Println("Error: Exactly one of --reads and --read-counts must be given.")
		return false
	}
	if config.reads != "" && !checkExist("--reads", config.reads) {
		return false
	}
	if config.readCounts != "" && !checkExist("--read-counts", config.readCounts) {
		return false
	}
	if config.genomeCounts != "" && !checkExist("--genome-counts", config.genomeCounts) {
		return false
	}
	if !config.empty && config.readCounts != "" && !(config.coverage > 0) {
		log.Println("Error: --coverage must be given when read counts are taken from a database.")
		return false
	}
	if config.coverage < 0 || math.IsNaN(config.coverage) {
		log.Printf("Error: Invalid coverage %v.\n", config.coverage)
		return false
	}
	if config.regularization < 0 || math.IsNaN(config.regularization) {
		log.Printf("Error: Invalid regularization constant %v.\n", config.regularization)
		return false
	}
	return checkKmerSize(config.kmerSize)
}

func openCountDB(filename string, codec dna.KmerCodec) (*kmers.CountDB, error) {
	db, err := kmers.OpenDB(filename)
	if err != nil {
		return nil, err
	}
	if k := db.Codec().K(); k != codec.K() {
		_ = db.Close()
		return nil, fmt.Errorf("%v contains %v-mers, expected %v-mers", filename, k, codec.K())
	}
	return db, nil
}

func readPanel(reference map[string]dna.Sequence, filename string, kmerSize int) (*variants.Panel, error) {
	panel, err := variants.NewPanel(reference, kmerSize)
	if err != nil {
		return nil, err
	}
	f, r := openInput(filename)
	defer internal.Close(f)
	if err := panel.ReadVCF(r); err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return panel, nil
}

func writeOutputHeader(out *bufio.Writer, config *uniqueKmersConfig, panel *variants.Panel) {
	fmt.Fprintf(out, "##program=%v %v\n", utils.ProgramName, utils.ProgramVersion)
	fmt.Fprintf(out, "##run-id=%v\n", runID)
	fmt.Fprintf(out, "##reference=%v\n", config.reference)
	fmt.Fprintf(out, "##vcf=%v\n", config.vcf)
	fmt.Fprintf(out, "##kmer-size=%v\n", config.kmerSize)
	fmt.Fprintf(out, "##coverage=%v\n", config.coverage)
	fmt.Fprintf(out, "##regularization=%v\n", config.regularization)
	fmt.Fprintf(out, "##samples=%v\n", strings.Join(panel.Samples(), ","))
	_, _ = out.WriteString(uniquekmers.SitesHeader)
}

// UniqueKmers implements the elkmer unique-kmers command.
func UniqueKmers() (err error) {
	var config uniqueKmersConfig

	var flags flag.FlagSet
	flags.StringVar(&config.reads, "reads", "", "FASTA or FASTQ file with the sample reads")
	flags.StringVar(&config.readCounts, "read-counts", "", "k-mer count database of the sample reads, created with count-kmers")
	flags.StringVar(&config.genomeCounts, "genome-counts", "", "k-mer count database of the reference genome, created with count-kmers --reference")
	flags.IntVar(&config.kmerSize, "kmer-size", 31, "length of the k-mers")
	flags.BoolVar(&config.canonical, "canonical", false, "count read k-mers and their reverse complements together")
	flags.Float64Var(&config.coverage, "coverage", 0, "nominal k-mer coverage of the reads, estimated from the reads if 0")
	flags.Float64Var(&config.regularization, "regularization", 0, "mix copy-number probabilities with the uniform distribution")
	flags.StringVar(&config.chromosomes, "chromosomes", "", "comma-separated list of chromosomes to process")
	flags.BoolVar(&config.empty, "empty", false, "only write the sites, without any k-mers")
	flags.StringVar(&config.logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&config.timed, "timed", false, "measure the runtime")
	flags.StringVar(&config.profile, "profile", "", "write a CPU profile for each phase")
	parseFlags(flags, 5, UniqueKmersHelp)

	config.reference = getFilename(os.Args[2], UniqueKmersHelp)
	config.vcf = getFilename(os.Args[3], UniqueKmersHelp)
	config.output = getFilename(os.Args[4], UniqueKmersHelp)

	setLogOutput(config.logPath)

	if !config.check() {
		fmt.Fprint(os.Stderr, UniqueKmersHelp)
		os.Exit(1)
	}

	codec, err := dna.NewKmerCodec(config.kmerSize)
	if err != nil {
		return err
	}

	var (
		reference map[string]dna.Sequence
		panel     *variants.Panel
	)
	release := func() {}
	defer func() { release() }()
	timedRun(config.timed, config.profile, "Reading reference and panel.", 1, func() {
		reference, release = loadReference(config.reference)
		panel, err = readPanel(reference, config.vcf, config.kmerSize)
	})
	if err != nil {
		return err
	}
	log.Printf("Panel with %v samples and %v paths per site.\n", len(panel.Samples()), panel.NrPaths())

	var genomic, reads kmers.Counter
	// skeleton records need no counts
	if !config.empty {
		if config.genomeCounts != "" {
			db, err := openCountDB(config.genomeCounts, codec)
			if err != nil {
				return err
			}
			defer internal.Close(db)
			if db.Canonical() {
				return fmt.Errorf("%v contains canonical k-mer counts, genome counts must be strand specific", config.genomeCounts)
			}
			timedRun(config.timed, config.profile, "Counting panel allele k-mers.", 2, func() {
				var alleles *kmers.Table
				alleles, err = kmers.CountSequences(codec, false, panel.AlleleSequences())
				genomic = kmers.Counters{db, alleles}
			})
			if err != nil {
				return err
			}
		} else {
			timedRun(config.timed, config.profile, "Counting reference and panel allele k-mers.", 2, func() {
				genomic, err = kmers.CountGenome(codec, reference, panel.AlleleSequences())
			})
			if err != nil {
				return err
			}
		}

		if config.readCounts != "" {
			db, err := openCountDB(config.readCounts, codec)
			if err != nil {
				return err
			}
			defer internal.Close(db)
			reads = db
		} else {
			var table *kmers.Table
			timedRun(config.timed, config.profile, "Counting read k-mers.", 3, func() {
				table, err = countReads(config.reads, codec, config.canonical)
			})
			if err != nil {
				return err
			}
			if config.coverage == 0 {
				config.coverage = kmers.EstimateCoverage(table.Histogram(histogramSize))
				if config.coverage == 0 {
					return fmt.Errorf("cannot estimate the k-mer coverage from %v, please use --coverage", config.reads)
				}
				log.Println("Estimated k-mer coverage:", config.coverage)
			}
			reads = table
		}
	}

	var chromosomes []string
	if config.chromosomes != "" {
		chromosomes = strings.Split(config.chromosomes, ",")
	} else {
		chromosomes = panel.Chromosomes()
	}

	f := internal.FileCreate(config.output)
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	out := bufio.NewWriter(f)
	writeOutputHeader(out, &config, panel)

	for _, chromosome := range chromosomes {
		var sites []*uniquekmers.Site
		if config.empty {
			sites = uniquekmers.EmptySites(panel, chromosome)
		} else {
			computer, err := uniquekmers.NewComputer(genomic, reads, panel, chromosome, config.coverage)
			if err != nil {
				return err
			}
			timedRun(config.timed, config.profile, "Computing unique k-mers for "+chromosome+".", 4, func() {
				sites, err = computer.Compute(config.regularization)
			})
			if err != nil {
				return err
			}
		}
		total := 0
		for _, site := range sites {
			total += site.Size()
		}
		log.Printf("Chromosome %v: %v sites, %v unique k-mers.\n", chromosome, len(sites), total)
		if err := uniquekmers.WriteSites(out, chromosome, sites, codec); err != nil {
			return err
		}
	}
	return out.Flush()
}
