package models

import "time"

// Media file kinds.
const (
	FileTypeAudio = "audio"
	FileTypeVideo = "video"
)

// MediaFile statuses. Transitions are monotonic:
// pending_upload → uploading → assembling → audio_processing →
// pending_transcription → transcribing|transcribing_chunked → completed.
// Each failed_* status is terminal and is set only by the stage that
// detected the failure.
const (
	StatusPendingUpload        = "pending_upload"
	StatusUploading            = "uploading"
	StatusAssembling           = "assembling"
	StatusAudioProcessing      = "audio_processing"
	StatusPendingTranscription = "pending_transcription"
	StatusTranscribing         = "transcribing"
	StatusTranscribingChunked  = "transcribing_chunked"
	StatusCompleted            = "completed"

	StatusFailedUpload        = "failed_upload"
	StatusFailedAssembly      = "failed_assembly"
	StatusFailedExtraction    = "failed_extraction"
	StatusFailedTranscription = "failed_transcription"
	StatusFailedAudioTooLarge = "failed_audio_too_large"
)

type MediaFile struct {
	ID               string  `db:"id"`
	OwnerID          string  `db:"owner_id"`
	FilenameOriginal string  `db:"filename_original"`
	FilesizeBytes    int64   `db:"filesize_bytes"`
	FileType         string  `db:"file_type"` // "audio" or "video"
	MimeType         string  `db:"mime_type"`
	Language         string  `db:"language_transcription"`
	Status           string  `db:"status"`
	JobRef           *string `db:"job_ref"` // external transcription job reference
	StoragePathOrig  *string `db:"storage_path_original"`
	StoragePathAudio *string `db:"storage_path_audio"`
	DurationSeconds  *int    `db:"duration_seconds"`
	ErrorMessage     *string `db:"error_message"`

	UploadDate time.Time `db:"upload_date"`
}

func (m *MediaFile) IsProcessing() bool {
	switch m.Status {
	case StatusUploading,
		StatusAssembling,
		StatusAudioProcessing,
		StatusPendingTranscription,
		StatusTranscribing,
		StatusTranscribingChunked:
		return true
	}
	return false
}

func (m *MediaFile) IsCompleted() bool {
	return m.Status == StatusCompleted
}

func (m *MediaFile) HasFailed() bool {
	switch m.Status {
	case StatusFailedUpload,
		StatusFailedAssembly,
		StatusFailedExtraction,
		StatusFailedTranscription,
		StatusFailedAudioTooLarge:
		return true
	}
	return false
}
