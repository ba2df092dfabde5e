package subtitles

import (
	"fmt"
	"strings"

	"github.com/subvox/subvox/internal/models"
)

const txtRule = "=================================================="

// TXT renders a plain-text transcript grouped by speaker, with a metadata
// footer. Segments without a label are grouped under "Unknown".
func TXT(result *models.Result) string {
	var sb strings.Builder

	sb.WriteString("TRANSCRIPT\n")
	sb.WriteString(txtRule + "\n\n")

	currentSpeaker := ""
	for _, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		if speaker != currentSpeaker {
			if currentSpeaker != "" {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%s:\n", speaker)
			currentSpeaker = speaker
		}

		fmt.Fprintf(&sb, "[%s] %s\n", txtTimestamp(seg.Start), text)
	}

	sb.WriteString("\n" + txtRule + "\n")
	sb.WriteString("METADATA\n")
	sb.WriteString(txtRule + "\n")

	fmt.Fprintf(&sb, "Segments: %d\n", len(result.Segments))
	fmt.Fprintf(&sb, "Words: %d\n", result.WordCount())
	fmt.Fprintf(&sb, "Speakers: %d\n", result.SpeakerCount())

	if speakers := result.Speakers(); len(speakers) > 0 {
		fmt.Fprintf(&sb, "Speaker list: %s\n", strings.Join(speakers, ", "))
	}

	return sb.String()
}
