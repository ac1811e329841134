package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

type run struct {
	Attempt  int
	Status   int
	Match    bool
	Duration time.Duration
	Error    error
	body     []byte
}

func main() {
	var (
		base      string
		inputPath string
		runs      int
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "Timetable API base URL")
	flag.StringVar(&inputPath, "input", filepath.Join("scripts", "replay_check", "sample_input.json"), "Path to a SchedulingInput JSON file")
	flag.IntVar(&runs, "runs", 5, "Number of solve requests to replay")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}
	if runs < 2 {
		log.Fatalf("need at least 2 runs to compare, got %d", runs)
	}

	client := &http.Client{Timeout: timeout}
	url := base + "/v1/schedule/solve"

	var (
		baseline []byte
		results  []run
		diffs    int
		failures int
	)

	for attempt := 1; attempt <= runs; attempt++ {
		res := performSolve(client, url, payload, attempt)
		if res.Error != nil {
			failures++
			results = append(results, res)
			continue
		}
		if baseline == nil {
			baseline = res.body
			res.Match = true
		} else {
			res.Match = bytes.Equal(baseline, res.body)
			if !res.Match {
				diffs++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Diverging responses: %d, Failed requests: %d\n", diffs, failures)
	if diffs > 0 || failures > 0 {
		os.Exit(1)
	}
}

func performSolve(client *http.Client, url string, payload []byte, attempt int) run {
	res := run{Attempt: attempt}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		res.Error = err
		return res
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}
	res.body = body
	return res
}

func printReport(results []run) {
	fmt.Println("Replay Check Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] run %d\n", status, res.Attempt)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
	}
}
