// Command bench fires a batch of generation requests at a running proxy and
// prints latency per outcome as a markdown table.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dandegeest/aMiRROrMySubconscious/internal/transport"
)

const (
	outcomeSucceeded = "succeeded"
	outcomePending   = "pending"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

func main() {
	var (
		endpoint     = flag.String("url", "http://localhost:5000/generate", "generate endpoint")
		requests     = flag.Int("n", 10, "number of requests")
		concurrency  = flag.Int("c", 2, "concurrent requests")
		model        = flag.String("model", "schnell", "bare model")
		modelVersion = flag.String("model-version", "", "named variant, overrides -model")
		prompt       = flag.String("prompt", "a mirror reflecting a dream", "prompt")
		image        = flag.String("image", "", "image reference (URL, data URI or server path)")
		timeout      = flag.Duration("timeout", 3*time.Minute, "per-request timeout")
	)
	flag.Parse()

	req := GenerateRequest{Prompt: *prompt, Image: *image}
	if *modelVersion != "" {
		req.ModelVersion = *modelVersion
	} else {
		req.Model = *model
	}

	client := transport.NewClient(*timeout)
	results := run(context.Background(), client, *endpoint, req, *requests, *concurrency)
	for _, r := range results {
		if r.Err != nil {
			log.Println("ERR:", r.Err)
		}
	}
	printMarkdown(results)
}

func run(ctx context.Context, client *http.Client, endpoint string, req GenerateRequest, n, c int) []BenchResult {
	if c < 1 {
		c = 1
	}
	results := make([]BenchResult, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < c; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = benchmarkGenerate(ctx, client, endpoint, req)
				log.Printf("%d %s %v", i, results[i].Outcome, results[i].Duration.Round(time.Millisecond))
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func benchmarkGenerate(ctx context.Context, client *http.Client, endpoint string, req GenerateRequest) BenchResult {
	start := time.Now()

	body, err := sonic.Marshal(req)
	if err != nil {
		return BenchResult{Outcome: outcomeError, Err: fmt.Errorf("marshal req: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return BenchResult{Outcome: outcomeError, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return BenchResult{Outcome: outcomeError, Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	res := BenchResult{
		Code:     resp.StatusCode,
		Duration: time.Since(start),
		Size:     int64(len(raw)),
	}
	if err != nil {
		res.Outcome, res.Err = outcomeError, err
		return res
	}

	var gr GenerateResponse
	if err := sonic.Unmarshal(raw, &gr); err != nil {
		res.Outcome, res.Err = outcomeError, fmt.Errorf("bad status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
		return res
	}
	res.Outcome = classify(resp.StatusCode, gr)
	if !gr.Success {
		res.Err = fmt.Errorf("status %d: %s", resp.StatusCode, gr.Error)
	}
	return res
}

func classify(code int, gr GenerateResponse) string {
	switch {
	case gr.Success && gr.PredictionID != "":
		return outcomePending
	case gr.Success:
		return outcomeSucceeded
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return outcomeRejected
	default:
		return outcomeError
	}
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		a := m[r.Outcome]
		a.Count++
		a.TotalBytes += r.Size
		a.Total += r.Duration
		m[r.Outcome] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Print("\n## Benchmark Results\n\n")
	fmt.Println("| Outcome | Requests | Avg Time | Total Time | Avg Response Size |")
	fmt.Println("|---------|----------|----------|------------|-------------------|")

	agg := aggregate(results)
	outcomes := make([]string, 0, len(agg))
	for o := range agg {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)

	var (
		totalCount    int
		totalDuration time.Duration
		totalBytes    int64
	)

	for _, outcome := range outcomes {
		a := agg[outcome]
		avg := a.Total / time.Duration(a.Count)
		avgSize := a.TotalBytes / int64(a.Count)
		fmt.Printf("| %s | %d | %v | %v | %s |\n",
			outcome,
			a.Count,
			avg.Round(time.Millisecond),
			a.Total.Round(time.Millisecond),
			humanBytes(avgSize),
		)
		totalCount += a.Count
		totalDuration += a.Total
		totalBytes += a.TotalBytes
	}

	if totalCount > 0 {
		mean := totalDuration / time.Duration(totalCount)
		avgSize := totalBytes / int64(totalCount)
		fmt.Printf("| **ALL** | %d | %v | %v | %s |\n",
			totalCount,
			mean.Round(time.Millisecond),
			totalDuration.Round(time.Millisecond),
			humanBytes(avgSize),
		)
	}
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
