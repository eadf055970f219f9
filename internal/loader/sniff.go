package loader

import "strings"

// sniffCandidates is the closed set of delimiters Sniff considers, in
// tie-break priority order.
var sniffCandidates = []string{",", "|", ";", ":", "\t", "/"}

// sniffSampleLines bounds how much of the input the sniffer looks at.
const sniffSampleLines = 10

// Sniff detects the field delimiter of a delimited-text sample by frequency:
// the candidate occurring most often across the first few lines wins, ties
// broken by candidate order. An empty or delimiter-free sample defaults to
// ",".
func Sniff(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > sniffSampleLines {
		lines = lines[:sniffSampleLines]
	}
	sample := strings.Join(lines, "\n")

	best := ","
	bestCount := 0
	for _, cand := range sniffCandidates {
		if n := strings.Count(sample, cand); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}
