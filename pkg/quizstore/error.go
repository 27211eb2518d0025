package quizstore

// NotFoundError is returned when a quiz doesn't exist for the owner.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "quiz not found"
	}

	return "quiz not found: " + e.ID
}
