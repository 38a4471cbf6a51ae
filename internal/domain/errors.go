package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrMissingImage        = errors.New("no image provided")
	ErrZeroPercentageSum   = errors.New("ingredient percentages sum to zero")
	ErrNoPendingQuestion   = errors.New("no clarification question pending")
	ErrAnswerTimeout       = errors.New("timed out waiting for an answer")
	ErrPipelineBusy        = errors.New("an analysis is already running for this session")
)
