package extractor

import "regexp"

// blacklist matches characters that must never reach the roster or an
// export file: markup brackets, braces, pipes, escapes and backticks.
var blacklist = regexp.MustCompile("[<>{}|\\\\^~\\[\\]`]")

// Sanitize strips blacklisted characters from a captured value. Every
// value placed in a GradeRecord or ModuleDescriptor passes through here.
func Sanitize(s string) string {
	return blacklist.ReplaceAllString(s, "")
}
