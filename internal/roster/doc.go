// Package roster holds the canonical wide table of students: one row per
// Index number, identity columns passed through untouched, and one grade
// column per merged module. Tables are immutable; every operation returns
// a new derived Table so concurrent callers can safely work from their own
// snapshots.
package roster
