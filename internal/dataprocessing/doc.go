// Package dataprocessing turns raw screener snapshot exports into a merged
// rank-movement table. It handles the complete transform lifecycle from
// format/encoding detection to the final delta-sorted merge.
//
// # Architecture
//
// The package is organized into four stages:
//
// 1. Reader: loads a snapshot file (delimited text or spreadsheet) into a Table,
// trying encoding and engine candidates in order and auto-detecting the header row
//
// 2. Normalizer: renames the code/name/percent-change columns to the canonical
// schema and coerces codes and percent values
//
// 3. Rank: assigns a dense 1..N rank by descending percent change
//
// 4. Merge: inner-joins two ranked snapshots on code and computes the rank delta
//
// # Usage
//
//	reader := dataprocessing.NewReader(cfg.Pipeline, logger)
//	table, err := reader.Read("data/zxg20240115.csv")
//	if err != nil {
//	    return err
//	}
//	if err := dataprocessing.NewNormalizer(cfg.Pipeline.ColumnMarkers).Normalize(table); err != nil {
//	    return err
//	}
//	if err := dataprocessing.Rank(table, dataprocessing.ColRank); err != nil {
//	    return err
//	}
package dataprocessing
