package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Word is one aligned word inside a segment.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one transcript segment. Speaker and Words are optional:
// empty string / nil slice mean the external API did not report them.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
	Words   []Word  `json:"words,omitempty"`
}

// Result is the decoded output of one transcription job. Top-level fields
// other than "segments" are carried opaquely in Meta so stitching can copy
// them from the first piece without knowing their shape.
type Result struct {
	Segments []Segment
	Meta     map[string]json.RawMessage
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if seg, ok := raw["segments"]; ok {
		if err := json.Unmarshal(seg, &r.Segments); err != nil {
			return err
		}
		delete(raw, "segments")
	}
	r.Meta = raw
	return nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Meta)+1)
	for k, v := range r.Meta {
		out[k] = v
	}
	seg, err := json.Marshal(r.Segments)
	if err != nil {
		return nil, err
	}
	out["segments"] = seg
	return json.Marshal(out)
}

// WordCount sums word-level counts where present, falling back to
// whitespace tokens of the segment text.
func (r *Result) WordCount() int {
	total := 0
	for _, seg := range r.Segments {
		if len(seg.Words) > 0 {
			total += len(seg.Words)
		} else {
			total += len(strings.Fields(seg.Text))
		}
	}
	return total
}

// Speakers returns the sorted distinct speaker labels across all segments.
func (r *Result) Speakers() []string {
	set := map[string]struct{}{}
	for _, seg := range r.Segments {
		if seg.Speaker != "" {
			set[seg.Speaker] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SpeakerCount defaults to 1 when no segment carries a label.
func (r *Result) SpeakerCount() int {
	if n := len(r.Speakers()); n > 0 {
		return n
	}
	return 1
}

// Transcription is the stitched, persisted result, 1:1 with a MediaFile.
type Transcription struct {
	ID      string `db:"id"`
	MediaID string `db:"media_id"`

	VTTPath          *string `db:"vtt_file_path"`
	WordLevelVTTPath *string `db:"word_level_vtt_file_path"`
	SRTPath          *string `db:"srt_file_path"`
	TXTPath          *string `db:"txt_file_path"`

	// Raw combined API output: inline when small, by file reference when not.
	RawOutput     []byte  `db:"raw_output"`
	RawOutputPath *string `db:"raw_output_path"`

	SegmentCount int `db:"segment_count"`
	WordCount    int `db:"word_count"`
	SpeakerCount int `db:"speaker_count"`

	CompletedDate time.Time `db:"completed_date"`
}
