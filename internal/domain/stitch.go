package domain

import (
	"fmt"
	"os"

	"github.com/subvox/subvox/internal/domain/stations"
	"github.com/subvox/subvox/internal/models"
)

// PieceOffsets estimates each piece's start time on the full timeline:
// piece 0 starts at 0, piece k at the previous start plus the previous
// piece's size-estimated duration. Pieces are not re-measured after
// cutting; drift on non-uniform encodings is accepted.
func PieceOffsets(piecePaths []string) ([]float64, error) {
	offsets := make([]float64, len(piecePaths))
	for i := 1; i < len(piecePaths); i++ {
		info, err := os.Stat(piecePaths[i-1])
		if err != nil {
			return nil, fmt.Errorf("stat piece %d: %w", i-1, err)
		}
		prevDuration := float64(info.Size()) / stations.BytesPerSecond
		offsets[i] = offsets[i-1] + prevDuration
	}
	return offsets, nil
}

// ShiftResult returns a copy of r with every segment (and word, when
// present) moved by offset seconds. The input is left untouched.
func ShiftResult(r *models.Result, offset float64) *models.Result {
	shifted := &models.Result{
		Segments: make([]models.Segment, len(r.Segments)),
		Meta:     r.Meta,
	}

	for i, seg := range r.Segments {
		out := seg
		out.Start += offset
		out.End += offset

		if len(seg.Words) > 0 {
			out.Words = make([]models.Word, len(seg.Words))
			for j, w := range seg.Words {
				w.Start += offset
				w.End += offset
				out.Words[j] = w
			}
		}

		shifted.Segments[i] = out
	}

	return shifted
}

// CombineResults stitches per-piece results in submission order. Segment
// lists are concatenated as-is (submission order is trusted to equal
// temporal order); non-segment fields come from the first piece only.
func CombineResults(pieces []*models.Result) *models.Result {
	if len(pieces) == 0 {
		return &models.Result{}
	}
	if len(pieces) == 1 {
		return pieces[0]
	}

	combined := &models.Result{Meta: pieces[0].Meta}
	for _, piece := range pieces {
		combined.Segments = append(combined.Segments, piece.Segments...)
	}
	return combined
}
