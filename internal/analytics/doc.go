// Package analytics is the email engagement analytics engine.
//
// Every exported computation is a pure function of its inputs: the event
// records, the subscriber directory, and an injected "now". Nothing here
// performs I/O, reads the wall clock, or keeps state between calls, so the
// same inputs always produce the same report.
//
// The pipeline assembled by BuildReport is:
//
//	Aggregate        one pass over events: totals, histograms, rankings
//	BuildProfiles    one pass over events keyed by the subscriber index
//	AnalyzeCohorts   \
//	ClassifyChurn     > run concurrently on the same immutable snapshot
//	Segment          /
//	Predict, Recommend
//
// All time bucketing (hour of day, weekday, cohort keys, day differences)
// is done in UTC. Every rate guards its denominator and reports 0 instead
// of NaN or Inf.
package analytics
