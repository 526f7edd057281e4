// README: Smoke runner for a deployed NEMT API. Reads the API's own config for Postgres, Redis and listen address, then runs grouped checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"nemt/internal/config"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	results := NewRunner(cfg).RunAll(ctx)
	s := summarize(results)
	s.Print(os.Stdout)
	if s.Failed(cfg.Strict) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	DSN            string
	RedisAddr      string
	MigrationDir   string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

// loadConfig starts from the API config so the runner hits the same
// Postgres, Redis and listen address as the server it checks.
func loadConfig(args []string) (Config, error) {
	app, err := config.Load()
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "base-url", baseURL(app.HTTP.Addr), "API base URL")
	fs.StringVar(&cfg.DSN, "dsn", app.DB.DSN, "Postgres DSN")
	fs.StringVar(&cfg.RedisAddr, "redis", app.Redis.Addr, "Redis address")
	fs.StringVar(&cfg.MigrationDir, "migrations", "migrations", "Migration SQL directory")
	fs.BoolVar(&cfg.ApplyMigration, "apply-migration", false, "Apply migration SQL before the checks")
	fs.BoolVar(&cfg.Strict, "strict", false, "Fail on skipped checks")
	fs.DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "Total timeout")
	fs.IntVar(&cfg.Concurrency, "concurrency", 20, "Workers for the preview throughput check")
	fs.DurationVar(&cfg.Duration, "duration", 10*time.Second, "Length of the preview throughput check")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// baseURL turns a listen address such as ":8080" into a dialable URL.
func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// groupCount tallies results for one check group ("Payout", "Trip", ...).
type groupCount struct {
	Pass, Fail, Skip int
}

type Summary struct {
	Groups map[string]*groupCount
	Total  groupCount
	// Mismatches lists failing payout scenarios with the amount and source the API returned.
	Mismatches []Result
}

func summarize(results []Result) Summary {
	s := Summary{Groups: map[string]*groupCount{}}
	for _, r := range results {
		g := s.Groups[group(r.Name)]
		if g == nil {
			g = &groupCount{}
			s.Groups[group(r.Name)] = g
		}
		switch r.Status {
		case "PASS":
			g.Pass++
			s.Total.Pass++
		case "FAIL":
			g.Fail++
			s.Total.Fail++
			if group(r.Name) == "Payout" {
				s.Mismatches = append(s.Mismatches, r)
			}
		case "SKIP":
			g.Skip++
			s.Total.Skip++
		}
	}
	return s
}

// group is the check name up to its first colon.
func group(name string) string {
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}

func (s Summary) Failed(strict bool) bool {
	return s.Total.Fail > 0 || (strict && s.Total.Skip > 0)
}

func (s Summary) Print(w io.Writer) {
	names := make([]string, 0, len(s.Groups))
	for name := range s.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\n== Summary ==")
	for _, name := range names {
		g := s.Groups[name]
		fmt.Fprintf(w, "%-10s PASS=%d FAIL=%d SKIP=%d\n", name, g.Pass, g.Fail, g.Skip)
	}
	fmt.Fprintf(w, "%-10s PASS=%d FAIL=%d SKIP=%d\n", "total", s.Total.Pass, s.Total.Fail, s.Total.Skip)

	if len(s.Mismatches) > 0 {
		fmt.Fprintln(w, "\n== Payout mismatches ==")
		for _, r := range s.Mismatches {
			fmt.Fprintf(w, "%s: %s\n", r.Name, r.Note)
		}
	}
}
