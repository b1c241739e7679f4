// Package pipeline orchestrates external neuroimaging tools into fixed
// preprocessing pipelines for anatomical and functional MRI data.
//
// A Stage is one tool invocation together with the output files it is
// expected to produce. Stages whose outputs already exist are skipped on
// re-run, so an interrupted pipeline can be resumed by running it again.
// The tools themselves (brain extraction, registration, motion correction,
// field-map preparation) are opaque executables; this package only computes
// their file paths and sequences them.
package pipeline
