package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoreboard/pkg/logger"
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	maxBodyBytes            = 16 << 20
)

// httpClient wraps http.Client and tags every request with the run id.
type httpClient struct {
	client *http.Client
	runID  string
	seq    atomic.Int64
}

func newHTTPClient(timeout time.Duration, runID string) *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: timeout},
		runID:  runID,
	}
}

// getJSON issues GET url and decodes a JSON body into out. Statuses other
// than want are reported as ErrStatus.
func (c *httpClient) getJSON(ctx context.Context, url string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", fmt.Sprintf("%s-%d", c.runID, c.seq.Add(1)))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", url, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: GET %s returned %d", ErrStatus, url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: GET %s: %w", ErrDecode, url, err)
	}
	return nil
}

// fetchScores requests the listing cfg.Requests times across cfg.Workers
// workers. Failed requests leave a nil slot.
func fetchScores(ctx context.Context, cfg *Config, client *httpClient, stats *Stats) [][]Standing {
	log := logger.Get()
	log.Info(ctx, "fetching scores", logger.Int("requests", cfg.Requests), logger.Int("workers", cfg.Workers))

	url := cfg.BaseURL + "/api/scores"
	results := make([][]Standing, cfg.Requests)

	var (
		successful int64
		failed     int64
	)

	indexChan := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				if ctx.Err() != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				var listing []Standing
				if err := client.getJSON(ctx, url, http.StatusOK, &listing); err != nil {
					atomic.AddInt64(&failed, 1)
					log.Warn(ctx, "scores request failed", logger.Int("index", index), logger.Error(err))
					continue
				}
				if listing == nil {
					listing = []Standing{}
				}
				results[index] = listing
				atomic.AddInt64(&successful, 1)
				if cfg.Verbose {
					log.Debug(ctx, "scores received", logger.Int("index", index), logger.Int("participants", len(listing)))
				}
			}
		}()
	}

	for i := 0; i < cfg.Requests; i++ {
		indexChan <- i
	}
	close(indexChan)
	wg.Wait()

	stats.Requests = cfg.Requests
	stats.Successful = int(atomic.LoadInt64(&successful))
	stats.Failed = int(atomic.LoadInt64(&failed))

	return results
}
