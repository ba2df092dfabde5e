package subtitles

import "fmt"

// Timestamp math shared by all renderers: the integer part is split with
// plain 3600/60 division, milliseconds are truncated, never rounded.
func splitSeconds(seconds float64) (h, m, s, ms int) {
	total := int(seconds)
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	ms = int((seconds - float64(total)) * 1000)
	return
}

// vttTimestamp formats HH:MM:SS.mmm.
func vttTimestamp(seconds float64) string {
	h, m, s, ms := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// srtTimestamp formats HH:MM:SS,mmm (comma decimal separator).
func srtTimestamp(seconds float64) string {
	h, m, s, ms := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// txtTimestamp formats HH:MM:SS.
func txtTimestamp(seconds float64) string {
	h, m, s, _ := splitSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
