// Package models defines core data structures for transcript chunks, embedding records, and answers.
package models

// VideoMetadata describes the source video a chunk was taken from. It is
// attached to every record derived from that video and returned with answer
// sources so the caller can render citations.
type VideoMetadata struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Uploader string `json:"uploader,omitempty" yaml:"uploader,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}
