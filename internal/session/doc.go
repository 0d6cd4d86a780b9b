// Package session holds the caller-owned state the ranking workflow
// accumulates across interactions: the current roster snapshot, the
// upload history, and the per-session weight choices. There is no
// process-wide mutable state; every piece of state hangs off an explicit
// Session object handed to each call, and the Store isolates concurrent
// sessions from each other.
package session
