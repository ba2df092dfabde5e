package subtitles

import (
	"fmt"
	"strings"

	"github.com/subvox/subvox/internal/models"
)

// VTT renders segment-level WebVTT subtitles. Segments with empty text are
// skipped; cue ids count emitted cues only. Deterministic: identical input
// yields byte-identical output.
func VTT(result *models.Result) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	cueID := 1
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		speakerLabel := ""
		if seg.Speaker != "" {
			speakerLabel = fmt.Sprintf("<v %s>", seg.Speaker)
		}

		fmt.Fprintf(&sb, "%d\n", cueID)
		fmt.Fprintf(&sb, "%s --> %s\n", vttTimestamp(seg.Start), vttTimestamp(seg.End))
		fmt.Fprintf(&sb, "%s%s\n\n", speakerLabel, text)
		cueID++
	}

	return sb.String()
}

// WordLevelVTT renders one cue per aligned word, wrapped in a highlight
// span, for word-by-word highlighting in players. Segments without word
// data fall back to a segment-level cue.
func WordLevelVTT(result *models.Result) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")

	cueID := 1
	for _, seg := range result.Segments {
		speakerLabel := ""
		if seg.Speaker != "" {
			speakerLabel = fmt.Sprintf("<v %s>", seg.Speaker)
		}

		if len(seg.Words) > 0 {
			for _, w := range seg.Words {
				wordText := strings.TrimSpace(w.Word)
				if wordText == "" {
					continue
				}

				fmt.Fprintf(&sb, "%d\n", cueID)
				fmt.Fprintf(&sb, "%s --> %s\n", vttTimestamp(w.Start), vttTimestamp(w.End))
				fmt.Fprintf(&sb, "%s<c.word-highlight>%s</c>\n\n", speakerLabel, wordText)
				cueID++
			}
			continue
		}

		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		fmt.Fprintf(&sb, "%d\n", cueID)
		fmt.Fprintf(&sb, "%s --> %s\n", vttTimestamp(seg.Start), vttTimestamp(seg.End))
		fmt.Fprintf(&sb, "%s%s\n\n", speakerLabel, text)
		cueID++
	}

	return sb.String()
}
