package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakh/marginalia/internal/model"
)

// Restorer restores the stored markers of one page.
type Restorer interface {
	Restore(ctx context.Context, url string) (*model.RestoreResult, error)
}

// RestoreJob restores a single URL.
type RestoreJob struct {
	URL      string
	Restorer Restorer
}

// Execute runs the restoration.
func (j *RestoreJob) Execute(ctx context.Context) Result {
	result, err := j.Restorer.Restore(ctx, j.URL)
	return &RestoreOutcome{
		URL:    j.URL,
		Result: result,
		Error:  err,
	}
}

// RestoreOutcome is the result of one restore job.
type RestoreOutcome struct {
	URL    string
	Result *model.RestoreResult
	Error  error
}

// GetError returns the job's error.
func (r *RestoreOutcome) GetError() error {
	return r.Error
}

// BatchRestorer restores multiple pages concurrently.
type BatchRestorer struct {
	restorer    Restorer
	concurrency int
}

// NewBatchRestorer creates a batch restorer with the given concurrency.
func NewBatchRestorer(restorer Restorer, concurrency int) *BatchRestorer {
	return &BatchRestorer{
		restorer:    restorer,
		concurrency: concurrency,
	}
}

// ProcessURLs restores the given URLs concurrently.
func (b *BatchRestorer) ProcessURLs(ctx context.Context, urls []string) []*RestoreOutcome {
	if len(urls) == 0 {
		return []*RestoreOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, url := range urls {
		pool.Submit(&RestoreJob{URL: url, Restorer: b.restorer})
	}

	results := pool.Wait()

	outcomes := make([]*RestoreOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*RestoreOutcome)
	}
	return outcomes
}

// ProcessFile reads URLs from a file and restores them concurrently.
func (b *BatchRestorer) ProcessFile(ctx context.Context, filePath string) ([]*RestoreOutcome, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line. Blank lines and
// #-comments are skipped; duplicates keep their first position.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
