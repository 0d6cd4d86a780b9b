// Package ranking computes the credit-weighted grade point average (SGPA)
// and minimum-method competition rank over a roster. Compute is a pure
// function of its inputs: derived columns are dropped and rebuilt on every
// run, so repeated calls with the same roster and weights are bit-identical.
package ranking
