// Package story turns a region's case series into a segmented narrative.
//
// The stages run strictly downstream:
//
//	DetectPeaks/RankPeaks -> ToImportanceCurve -> ToEnvelope/FuseEnvelopes
//	  -> CandidateBoundaries/SelectBoundaries -> Partition -> Annotate -> Sequencer
//
// Every function is pure; a Story is rebuilt from scratch for each
// (region, segment count) selection.
//
// # Constants
//
//	MinPeakSeparation  7 days   candidate peaks closer than this merge, taller wins
//	KernelSigmaDays    7        width of the importance kernel
//	KernelAmplitude    1        kernel height per rank point
//	EnvelopeRatio      0.5      share of a hill's maximum that still counts as important
//	BoundarySpacing    0.1      leading cut candidates keep this share of the series apart
package story
