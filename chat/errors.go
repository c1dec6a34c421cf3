package chat

import "errors"

// TransportErrorMessage is shown when a request fails before the pipeline
// could answer.
const TransportErrorMessage = "An error occurred while fetching the data. Please try again."

var (
	// ErrEmptyQuestion rejects submissions whose trimmed text is empty.
	ErrEmptyQuestion = errors.New("please input a question")

	// ErrSubmissionInFlight rejects a submission while another is running.
	ErrSubmissionInFlight = errors.New("a question is already being answered")
)

// PipelineError is a failure reported by the pipeline itself.
type PipelineError struct {
	Message string
}

func (e *PipelineError) Error() string {
	return e.Message
}

// TransportError wraps a failure to reach or understand the pipeline.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return TransportErrorMessage
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
