// Package extractor turns the raw text of one result document into
// structured data: a module descriptor pulled from the header line and one
// grade record per (index number, grade token) match. Text acquisition
// from PDF bytes is isolated behind the TextExtractor interface so the
// parsing rules can be tested against plain strings.
package extractor
