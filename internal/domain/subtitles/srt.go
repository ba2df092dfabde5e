package subtitles

import (
	"fmt"
	"strings"

	"github.com/subvox/subvox/internal/models"
)

// SRT renders SubRip subtitles: comma decimal separator in timestamps,
// speaker as a bracketed prefix, 1-based sequential numbering over emitted
// cues.
func SRT(result *models.Result) string {
	var sb strings.Builder

	subtitleID := 1
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if seg.Speaker != "" {
			text = fmt.Sprintf("[%s] %s", seg.Speaker, text)
		}

		fmt.Fprintf(&sb, "%d\n", subtitleID)
		fmt.Fprintf(&sb, "%s --> %s\n", srtTimestamp(seg.Start), srtTimestamp(seg.End))
		fmt.Fprintf(&sb, "%s\n\n", text)
		subtitleID++
	}

	return sb.String()
}
