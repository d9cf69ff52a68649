package model

// RestoreResult is the outcome of restoring one page.
type RestoreResult struct {
	URL      string
	HTML     string
	Restored int
	Skipped  int
}
