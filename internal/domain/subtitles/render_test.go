package subtitles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/subvox/subvox/internal/models"
)

func diarizedResult() *models.Result {
	return &models.Result{
		Segments: []models.Segment{
			{Start: 0, End: 2.5, Text: " Hello there. ", Speaker: "SPEAKER_00"},
			{Start: 2.5, End: 4, Text: "   "},
			{Start: 4, End: 7.125, Text: "General Kenobi.", Speaker: "SPEAKER_01"},
		},
	}
}

func TestVTT(t *testing.T) {
	got := VTT(diarizedResult())

	want := "WEBVTT\n\n" +
		"1\n" +
		"00:00:00.000 --> 00:00:02.500\n" +
		"<v SPEAKER_00>Hello there.\n\n" +
		"2\n" +
		"00:00:04.000 --> 00:00:07.125\n" +
		"<v SPEAKER_01>General Kenobi.\n\n"
	assert.Equal(t, want, got)
}

func TestVTTNoSpeakers(t *testing.T) {
	got := VTT(&models.Result{Segments: []models.Segment{
		{Start: 3661.25, End: 3725.875, Text: "one hour in"},
	}})

	want := "WEBVTT\n\n" +
		"1\n" +
		"01:01:01.250 --> 01:02:05.875\n" +
		"one hour in\n\n"
	assert.Equal(t, want, got)
}

func TestVTTEmptyResult(t *testing.T) {
	assert.Equal(t, "WEBVTT\n\n", VTT(&models.Result{}))
}

func TestWordLevelVTT(t *testing.T) {
	result := &models.Result{
		Segments: []models.Segment{
			{
				Start: 0, End: 1.2, Text: "Hello there.", Speaker: "SPEAKER_00",
				Words: []models.Word{
					{Word: " Hello", Start: 0, End: 0.5},
					{Word: "there. ", Start: 0.5, End: 1.2},
				},
			},
			// no word alignment: falls back to a segment cue
			{Start: 1.2, End: 2, Text: "unaligned tail"},
		},
	}

	got := WordLevelVTT(result)

	want := "WEBVTT\n\n" +
		"1\n" +
		"00:00:00.000 --> 00:00:00.500\n" +
		"<v SPEAKER_00><c.word-highlight>Hello</c>\n\n" +
		"2\n" +
		"00:00:00.500 --> 00:00:01.200\n" +
		"<v SPEAKER_00><c.word-highlight>there.</c>\n\n" +
		"3\n" +
		"00:00:01.200 --> 00:00:02.000\n" +
		"unaligned tail\n\n"
	assert.Equal(t, want, got)
}

func TestSRT(t *testing.T) {
	got := SRT(diarizedResult())

	want := "1\n" +
		"00:00:00,000 --> 00:00:02,500\n" +
		"[SPEAKER_00] Hello there.\n\n" +
		"2\n" +
		"00:00:04,000 --> 00:00:07,125\n" +
		"[SPEAKER_01] General Kenobi.\n\n"
	assert.Equal(t, want, got)
}

func TestTXT(t *testing.T) {
	result := &models.Result{
		Segments: []models.Segment{
			{Start: 0, End: 2, Text: "Hello there.", Speaker: "SPEAKER_00"},
			{Start: 2, End: 4, Text: "Still me.", Speaker: "SPEAKER_00"},
			{Start: 4, End: 7, Text: "General Kenobi.", Speaker: "SPEAKER_01"},
			{Start: 7, End: 9, Text: "who said this"},
		},
	}

	got := TXT(result)

	want := "TRANSCRIPT\n" +
		txtRule + "\n\n" +
		"SPEAKER_00:\n" +
		"[00:00:00] Hello there.\n" +
		"[00:00:02] Still me.\n" +
		"\n" +
		"SPEAKER_01:\n" +
		"[00:00:04] General Kenobi.\n" +
		"\n" +
		"Unknown:\n" +
		"[00:00:07] who said this\n" +
		"\n" + txtRule + "\n" +
		"METADATA\n" +
		txtRule + "\n" +
		"Segments: 4\n" +
		"Words: 9\n" +
		"Speakers: 2\n" +
		"Speaker list: SPEAKER_00, SPEAKER_01\n"
	assert.Equal(t, want, got)
}

func TestTXTNoSpeakersOmitsList(t *testing.T) {
	result := &models.Result{
		Segments: []models.Segment{
			{Start: 0, End: 1, Text: "just text"},
		},
	}

	got := TXT(result)

	assert.Contains(t, got, "Unknown:\n[00:00:00] just text\n")
	assert.Contains(t, got, "Speakers: 1\n")
	assert.NotContains(t, got, "Speaker list:")
}

func TestRenderersAreDeterministic(t *testing.T) {
	result := diarizedResult()
	assert.Equal(t, VTT(result), VTT(result))
	assert.Equal(t, WordLevelVTT(result), WordLevelVTT(result))
	assert.Equal(t, SRT(result), SRT(result))
	assert.Equal(t, TXT(result), TXT(result))
}

func TestTimestampTruncation(t *testing.T) {
	// milliseconds truncate toward zero, never round up
	assert.Equal(t, "00:00:59.999", vttTimestamp(59.9999))
	assert.Equal(t, "00:01:00.000", vttTimestamp(60.0))
	assert.Equal(t, "10:17:36.750", vttTimestamp(37056.75))
	assert.Equal(t, "00:00:59,999", srtTimestamp(59.9999))
	assert.Equal(t, "01:01:01", txtTimestamp(3661.99))
}
