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


// elkmer computes unique k-mer copy-number evidence for genotyping a
// sample against a phased variant panel.
//
// For every variant site of the panel, it selects the k-mers that
// occur on a strict subset of the panel's paths through the site and
// nowhere else in the genome, and annotates each of them with the
// probabilities that the sample carries 0, 1, or 2 copies of it,
// given its count in the sample reads.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elkmer/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: count-kmers, unique-kmers, fasta-to-elfasta")
	fmt.Fprint(os.Stderr, "\n", cmd.CountKmersHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.UniqueKmersHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FastaToElfastaHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprintln(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "count-kmers":
		err = cmd.CountKmers()
	case "unique-kmers":
		err = cmd.UniqueKmers()
	case "fasta-to-elfasta":
		err = cmd.FastaToElfasta()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command", os.Args[1])
		fmt.Fprintln(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
