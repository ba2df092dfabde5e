package models

import "time"

// ChunkUpload is one uploaded byte range of a chunked upload session.
// (UploadID, ChunkNumber) is unique; ChunkNumber is 0-based and lives in
// [0, TotalChunks). Rows are deleted after successful assembly or an
// explicit cancel.
type ChunkUpload struct {
	ID          int    `db:"id"`
	UploadID    string `db:"upload_id"`
	OwnerID     string `db:"owner_id"`
	ChunkNumber int    `db:"chunk_number"`
	TotalChunks int    `db:"total_chunks"`
	ChunkSize   int64  `db:"chunk_size"`

	// Declared metadata of the final file, repeated on every chunk.
	Filename  string `db:"filename"`
	FileType  string `db:"file_type"`
	TotalSize int64  `db:"total_size"`

	// Payload sits on disk until assembly.
	ChunkPath string `db:"chunk_path"`

	UploadedAt time.Time `db:"uploaded_at"`
}
