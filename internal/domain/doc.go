// Package domain models daily case-count series and the narrative records
// derived from them.
//
// # Data Source
//
// Rows come from the public dashboard export
// "newCasesByPublishDateRollingSum": one row per (area, publish date) with a
// seven-day rolling sum of newly reported cases. The ingestion layer hands
// over rows as strings; [ParseRow] turns them into typed points and rejects
// rows it cannot read so the caller can skip them.
//
// # Conventions
//
// Dates:
//
//	Accepted as ISO dates ("2020-03-24") or RFC 3339 timestamps. Every date
//	is truncated to its UTC calendar day, so a Series holds at most one point
//	per day and events attach to points by calendar day.
//
// Counts:
//
//	Parsed as float64. Empty, non-numeric, NaN, infinite or negative counts
//	are rejected.
//
// Ranks:
//
//	Small integers in [1, 5] used only for threshold comparison. Peak ranks
//	come from height quintiles within one region; semantic ranks come from a
//	fixed priority table:
//
//	  LOCKDOWN_START 5 | VACCINE 4 | LOCKDOWN_END 3
//
// Annotation intervals:
//
//	Each Annotation covers [StartIndex, EndIndex] of the series, where
//	EndIndex is the anchor. Once a story is sequenced the intervals chain
//	(StartIndex[i] == EndIndex[i-1]) and the last one ends at len(series)-1.
package domain
