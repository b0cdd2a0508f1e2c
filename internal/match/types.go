package match

// Result represents one catalog entry scored against a question.
type Result struct {
	Key         string
	Description string
	Handler     string
	Score       float64
	// Position is the entry's index in catalog order.
	Position int
}
