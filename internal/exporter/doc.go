// Package exporter writes ranked rosters to disk as CSV or xlsx files
// under generated, non-user-controlled names inside a fixed exports
// directory, and ages old export files out. Filenames embed a timestamp
// and a random suffix so a download link never points at user input.
package exporter
