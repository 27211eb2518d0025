package quiz

import "errors"

var (
	// ErrInvalidRequest is returned for a malformed quiz request.
	ErrInvalidRequest = errors.New("invalid quiz request")

	// ErrInvalidQuiz is returned when the model reply is not a well formed quiz.
	ErrInvalidQuiz = errors.New("model returned an invalid quiz")
)
