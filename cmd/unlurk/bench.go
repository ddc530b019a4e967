package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/baaakgun4543/unlurk/internal/prompt"
)

type benchOptions struct {
	url         string
	apiKey      string
	runs        int
	concurrency int
	jsonOut     string
	warmup      bool
}

type benchResult struct {
	Sample    string `json:"sample"`
	Chars     int    `json:"chars"`
	Backend   string `json:"backend,omitempty"`
	Run       int    `json:"run"`
	ElapsedMs int64  `json:"elapsed_ms"`
	WallMs    int64  `json:"wall_ms"`
	OutChars  int    `json:"out_chars"`
	Error     string `json:"error,omitempty"`
}

type benchDraftRequest struct {
	Context prompt.Context `json:"context"`
}

type benchDraftResponse struct {
	Draft     string `json:"draft"`
	Backend   string `json:"backend"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func newBenchCmd() *cobra.Command {
	o := &benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure draft latency against a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVar(&o.url, "url", "http://localhost:8090", "API base URL")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "server API key (optional)")
	cmd.Flags().IntVar(&o.runs, "runs", 3, "number of runs per sample")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 1, "requests in flight at once")
	cmd.Flags().StringVar(&o.jsonOut, "json", "", "write results to a JSON file")
	cmd.Flags().BoolVar(&o.warmup, "warmup", false, "send one discarded request per sample first")
	return cmd
}

func runBench(ctx context.Context, out io.Writer, o *benchOptions) error {
	if o.runs < 1 || o.concurrency < 1 {
		return fmt.Errorf("runs and concurrency must be positive")
	}
	b := &bencher{
		client:  &http.Client{Timeout: 180 * time.Second},
		baseURL: strings.TrimRight(o.url, "/"),
		apiKey:  o.apiKey,
	}

	fmt.Fprintf(out, "Benchmarking %s (%d runs per sample, concurrency %d)\n", b.baseURL, o.runs, o.concurrency)

	if o.warmup {
		for _, s := range Samples {
			w := b.draft(ctx, s, 0)
			if w.Error != "" {
				fmt.Fprintf(out, "  warmup %s FAILED (%s)\n", s.Name, w.Error)
			}
		}
	}

	// Each run writes its own slot so the table keeps sample and run order.
	results := make([]benchResult, len(Samples)*o.runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, s := range Samples {
		for run := 1; run <= o.runs; run++ {
			slot := i*o.runs + run - 1
			g.Go(func() error {
				results[slot] = b.draft(gctx, s, run)
				return nil
			})
		}
	}
	g.Wait()

	fmt.Fprintln(out)
	printTable(out, results)
	failed := printSummary(out, results)

	if o.jsonOut != "" {
		if err := writeReport(o.jsonOut, b.baseURL, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults written to %s\n", o.jsonOut)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

type bencher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func (b *bencher) draft(ctx context.Context, s Sample, run int) benchResult {
	chars := utf8.RuneCountInString(s.Context.String(prompt.KeyThreadContent))
	fail := func(msg string) benchResult {
		return benchResult{Sample: s.Name, Chars: chars, Run: run, Error: msg}
	}

	payload, err := json.Marshal(benchDraftRequest{Context: s.Context})
	if err != nil {
		return fail(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/draft", strings.NewReader(string(payload)))
	if err != nil {
		return fail(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("X-API-Key", b.apiKey)
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	wallMs := time.Since(start).Milliseconds()
	if err != nil {
		return fail(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fail(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var dr benchDraftResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fail(err.Error())
	}
	return benchResult{
		Sample:    s.Name,
		Chars:     chars,
		Backend:   dr.Backend,
		Run:       run,
		ElapsedMs: dr.ElapsedMs,
		WallMs:    wallMs,
		OutChars:  utf8.RuneCountInString(dr.Draft),
	}
}

func printTable(out io.Writer, results []benchResult) {
	fmt.Fprintln(out, "| Sample | Chars | Backend | Run | Elapsed (ms) | Wall (ms) | Out Chars |")
	fmt.Fprintln(out, "|--------|-------|---------|-----|--------------|-----------|-----------|")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(out, "| %-6s | %5d | %-9s | %d | %12s | %9s | %9s |\n",
				r.Sample, r.Chars, "-", r.Run, "FAIL", "-", "-")
			continue
		}
		fmt.Fprintf(out, "| %-6s | %5d | %-9s | %d | %12d | %9d | %9d |\n",
			r.Sample, r.Chars, r.Backend, r.Run, r.ElapsedMs, r.WallMs, r.OutChars)
	}
}

// printSummary writes latency extremes and returns the number of failed runs.
func printSummary(out io.Writer, results []benchResult) int {
	var ok []benchResult
	for _, r := range results {
		if r.Error == "" {
			ok = append(ok, r)
		}
	}
	failed := len(results) - len(ok)
	if len(ok) == 0 {
		fmt.Fprintf(out, "\nSummary: all %d runs failed\n", len(results))
		return failed
	}

	var total int64
	fastest, slowest := ok[0], ok[0]
	for _, r := range ok {
		total += r.ElapsedMs
		if r.ElapsedMs < fastest.ElapsedMs {
			fastest = r
		}
		if r.ElapsedMs > slowest.ElapsedMs {
			slowest = r
		}
	}

	fmt.Fprintf(out, "\nSummary:\n")
	fmt.Fprintf(out, "- Avg elapsed: %dms\n", total/int64(len(ok)))
	fmt.Fprintf(out, "- Min elapsed: %dms (%s)\n", fastest.ElapsedMs, fastest.Sample)
	fmt.Fprintf(out, "- Max elapsed: %dms (%s)\n", slowest.ElapsedMs, slowest.Sample)
	fmt.Fprintf(out, "- Total runs: %d (%d ok, %d failed)\n", len(results), len(ok), failed)
	return failed
}

type benchReport struct {
	Timestamp string        `json:"timestamp"`
	URL       string        `json:"url"`
	Results   []benchResult `json:"results"`
}

func writeReport(path, baseURL string, results []benchResult) error {
	data, err := json.MarshalIndent(benchReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       baseURL,
		Results:   results,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
