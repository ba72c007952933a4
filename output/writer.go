// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

// Package output formats an aggregated rows×cols level-element buffer for
// client/offline consumption: bedgraph-style text, dataframe text, or a
// per-column .npy export.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/stat"

	"github.com/andrewdavidsmith/transferase"
)

// nopCloser adapts an io.Writer that must not be closed by gonpy (which
// closes whatever writer it is given) into an io.WriteCloser.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Row is one interval's or bin's aggregated counts across every requested
// methylome, plus the genomic coordinates bedgraph output needs.
type Row struct {
	Chrom string
	Start uint32
	Stop  uint32
	Cols  []transferase.LevelElement
}

// WriteBedgraph writes one tab-separated line per row: chrom, start, stop,
// then one methylation proportion per column, formatted to six decimal
// places. A column with no coverage is written as "NA" rather than NaN, a
// plain-text sentinel that survives round-tripping through tools that
// don't parse NaN consistently.
func WriteBedgraph(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		fmt.Fprintf(bw, "%s\t%d\t%d", r.Chrom, r.Start, r.Stop)
		for _, col := range r.Cols {
			total := col.NMeth + col.NUnmeth
			if total == 0 {
				fmt.Fprint(bw, "\tNA")
				continue
			}
			fmt.Fprintf(bw, "\t%.6f", float64(col.NMeth)/float64(total))
		}
		fmt.Fprint(bw, "\n")
	}
	return bw.Flush()
}

// WriteDataframe writes a header line of column names followed by one
// tab-separated line of methylation proportions per row, the
// R/pandas-friendly shape spec.md §6 calls "dataframe output".
func WriteDataframe(w io.Writer, colNames []string, rows []Row) error {
	bw := bufio.NewWriter(w)
	for i, name := range colNames {
		if i > 0 {
			fmt.Fprint(bw, "\t")
		}
		fmt.Fprint(bw, name)
	}
	fmt.Fprint(bw, "\n")
	for _, r := range rows {
		for i, col := range r.Cols {
			if i > 0 {
				fmt.Fprint(bw, "\t")
			}
			total := col.NMeth + col.NUnmeth
			if total == 0 {
				fmt.Fprint(bw, "NA")
				continue
			}
			fmt.Fprintf(bw, "%.6f", float64(col.NMeth)/float64(total))
		}
		fmt.Fprint(bw, "\n")
	}
	return bw.Flush()
}

// WriteColumnNpy writes one methylome column's methylation proportions as
// a 1-D float64 .npy array. w is wrapped in nopCloser so gonpy's Close
// doesn't close a writer the caller still owns.
func WriteColumnNpy(w io.Writer, rows []Row, col int) error {
	data := make([]float64, len(rows))
	for i, r := range rows {
		total := r.Cols[col].NMeth + r.Cols[col].NUnmeth
		if total == 0 {
			data[i] = 0
			continue
		}
		data[i] = float64(r.Cols[col].NMeth) / float64(total)
	}
	npw, err := gonpy.NewWriter(nopCloser{w})
	if err != nil {
		return fmt.Errorf("output: opening npy writer: %w", err)
	}
	npw.Shape = []int{len(data)}
	if err := npw.WriteFloat64(data); err != nil {
		return fmt.Errorf("output: writing npy data: %w", err)
	}
	return nil
}

// Summary reports descriptive statistics for one methylome column: mean
// methylation proportion and the number of rows with zero coverage.
type Summary struct {
	Mean       float64
	NUncovered int
}

// Summarize computes Summary for column col of rows, using
// gonum.org/v1/gonum/stat for the mean.
func Summarize(rows []Row, col int) Summary {
	proportions := make([]float64, 0, len(rows))
	var nUncovered int
	for _, r := range rows {
		total := r.Cols[col].NMeth + r.Cols[col].NUnmeth
		if total == 0 {
			nUncovered++
			continue
		}
		proportions = append(proportions, float64(r.Cols[col].NMeth)/float64(total))
	}
	if len(proportions) == 0 {
		return Summary{NUncovered: nUncovered}
	}
	return Summary{Mean: stat.Mean(proportions, nil), NUncovered: nUncovered}
}
