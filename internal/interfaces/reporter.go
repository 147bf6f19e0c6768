package interfaces

// Reporter aggregates a persisted trade journal into a per-day summary
// artifact and returns the path it wrote, or "" when the journal holds no
// trades.
type Reporter interface {
	Summarize(journalPath string) (string, error)
}
