// Package transcript turns caption files into clean text ready for chunking
// and ingestion.
package transcript

import (
	"regexp"
	"strings"
)

var (
	// Matches cue timings in both VTT (00:00:01.000) and SRT (00:00:01,000) form.
	timingRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2}[.,]\d{3}\s+-->\s+\d{2}:\d{2}:\d{2}[.,]\d{3}`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	cueIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

// PlainText converts WebVTT or SRT caption content to plain text, detecting
// the format from the header. Unrecognized content is returned as-is.
func PlainText(captions string) string {
	trimmed := strings.TrimLeft(captions, "\uFEFF \t\r\n")
	if strings.HasPrefix(trimmed, "WEBVTT") {
		return FromVTT(captions)
	}
	if timingRe.MatchString(captions) {
		return FromSRT(captions)
	}
	return strings.TrimSpace(captions)
}

// FromVTT strips WebVTT headers, cue identifiers, timings, and markup,
// joining the remaining caption lines with spaces.
func FromVTT(vtt string) string {
	vtt = strings.TrimPrefix(vtt, "\uFEFF")
	var lines []string
	inHeader := false
	for _, line := range strings.Split(vtt, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "WEBVTT") {
			// Metadata lines may follow the signature until a blank line.
			inHeader = true
			continue
		}
		if line == "" {
			inHeader = false
			continue
		}
		if inHeader || strings.HasPrefix(line, "NOTE") {
			continue
		}
		if timingRe.MatchString(line) {
			continue
		}
		// Cue identifiers are single tokens on their own line.
		if cueIDRe.MatchString(line) && !strings.Contains(line, " ") {
			continue
		}
		cleaned := strings.TrimSpace(tagRe.ReplaceAllString(line, ""))
		if cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return strings.Join(lines, " ")
}

// FromSRT strips SRT sequence numbers and timings, joining caption lines
// with spaces.
func FromSRT(srt string) string {
	var lines []string
	for _, line := range strings.Split(srt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || digitsRe.MatchString(line) {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		cleaned := strings.TrimSpace(tagRe.ReplaceAllString(line, ""))
		if cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return strings.Join(lines, " ")
}
