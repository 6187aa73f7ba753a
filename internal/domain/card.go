package domain

// Card is the structured data drawn on a summary card.
type Card struct {
	Title       string
	Repo        string
	Description string
	Stars       int
	WeeklyDelta *int
	Tags        []string
	Date        string
}
