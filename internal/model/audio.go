package model

import "io"

// UploadedAudio is a single uploaded audio file. It lives only for the duration
// of the request that received it; the handler owns Body and closes it.
type UploadedAudio struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// TranscriptionResponse is the success payload of the transcribe endpoints.
type TranscriptionResponse struct {
	Transcription string `json:"transcription"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
