// Package scoring derives order-dependent behavioral metrics from sorted
// trial sequences: error (win-shift) switches, reversal counts, win-shift
// proportions and face-learning metacognition indices.
//
// Every function returns new slices and leaves its input untouched. Callers
// must pass trials stable-sorted by the task's sort keys so that each
// (Subject, Session) or (Subject, Block) partition is contiguous and in trial
// order; the derivations are meaningless under any other ordering.
package scoring
