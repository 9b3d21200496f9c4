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
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/exascience/elkmer/dna"
)

const countDBSchema = `
	CREATE TABLE meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE counts (
		kmer  INTEGER PRIMARY KEY,
		count INTEGER NOT NULL
	);
`

// A CountDB is a Counter backed by a SQLite file written with WriteDB.
type CountDB struct {
	db        *sql.DB
	lookup    *sql.Stmt
	codec     dna.KmerCodec
	canonical bool
}

// WriteDB stores the given table in a new SQLite file, replacing any
// existing file with the same name.
func WriteDB(filename string, table *Table) (err error) {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return err
	}
	db, err := sql.Open("sqlite", filename+"?_pragma=journal_mode(off)&_pragma=synchronous(off)")
	if err != nil {
		return fmt.Errorf("open count db %v: %w", filename, err)
	}
	defer func() {
		if nerr := db.Close(); err == nil {
			err = nerr
		}
	}()
	if _, err := db.Exec(countDBSchema); err != nil {
		return fmt.Errorf("create count db schema: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	meta := map[string]string{
		"k":         strconv.Itoa(table.codec.K()),
		"canonical": strconv.FormatBool(table.canonical),
	}
	for key, value := range meta {
		if _, err = tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	insert, err := tx.Prepare(`INSERT INTO counts (kmer, count) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()
	table.Range(func(kmer dna.Kmer, count uint64) bool {
		_, err = insert.Exec(int64(kmer), int64(count))
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("insert k-mer counts: %w", err)
	}
	return tx.Commit()
}

// OpenDB opens a SQLite file written with WriteDB.
func OpenDB(filename string) (*CountDB, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open count db %v: %w", filename, err)
	}
	meta := make(map[string]string)
	rows, err := db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read count db %v: %w", filename, err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			_ = rows.Close()
			_ = db.Close()
			return nil, err
		}
		meta[key] = value
	}
	if err := rows.Close(); err != nil {
		_ = db.Close()
		return nil, err
	}
	k, err := strconv.Atoi(meta["k"])
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid k-mer size in count db %v: %w", filename, err)
	}
	codec, err := dna.NewKmerCodec(k)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	canonical, err := strconv.ParseBool(meta["canonical"])
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid canonical flag in count db %v: %w", filename, err)
	}
	lookup, err := db.Prepare(`SELECT count FROM counts WHERE kmer = ?`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &CountDB{db: db, lookup: lookup, codec: codec, canonical: canonical}, nil
}

// Codec returns the codec the counts were stored with.
func (cdb *CountDB) Codec() dna.KmerCodec {
	return cdb.codec
}

// Canonical returns true if the counts merge k-mers with their
// reverse complements.
func (cdb *CountDB) Canonical() bool {
	return cdb.canonical
}

// Abundance implements the Counter interface. Database failures are
// not recoverable here and cause a panic.
func (cdb *CountDB) Abundance(kmer dna.Kmer) uint64 {
	if cdb.canonical {
		kmer = cdb.codec.Canonical(kmer)
	}
	var count int64
	if err := cdb.lookup.QueryRow(int64(kmer)).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0
		}
		log.Panic(err)
	}
	return uint64(count)
}

// Close closes the underlying database.
func (cdb *CountDB) Close() error {
	err := cdb.lookup.Close()
	if nerr := cdb.db.Close(); err == nil {
		err = nerr
	}
	return err
}
