// README: Smoke checks: connectivity, schema, payout scenarios and a preview throughput run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func singleTier(rate string, baseMiles int, additional string) map[string]any {
	return map[string]any{
		"tiers":              []map[string]any{{"fromMiles": 1, "toMiles": baseMiles, "rate": rate}},
		"additionalMileRate": additional,
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	ambulatory := map[string]any{
		"ambulatory": singleTier("14", 5, "1.20"),
		"noShowRate": "25",
	}
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				files, err := migrationFiles(r.cfg.MigrationDir)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, f := range files {
					sql, err := os.ReadFile(f)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					for _, s := range splitSQL(string(sql)) {
						if _, err := r.db.Exec(ctx, s); err != nil {
							return Result{Status: "FAIL", Note: filepath.Base(f) + ": " + err.Error()}
						}
					}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("files=%d", len(files))}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationDir)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS", Note: strings.Join(tables, ",")}
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		payoutCase("Payout: A ambulatory within first tier", base+"/api/payouts/preview", map[string]any{
			"trip":    map[string]any{"serviceLevel": "ambulatory", "distanceMiles": "3.0", "status": "completed"},
			"profile": ambulatory,
		}, "14.00", "tiered"),

		payoutCase("Payout: B ambulatory overflow miles", base+"/api/payouts/preview", map[string]any{
			"trip":    map[string]any{"serviceLevel": "ambulatory", "distanceMiles": "12.6", "status": "completed"},
			"profile": ambulatory,
		}, "23.60", "tiered"),

		payoutCase("Payout: C no-show fee", base+"/api/payouts/preview", map[string]any{
			"trip":    map[string]any{"serviceLevel": "ambulatory", "distanceMiles": "40", "status": "no_show"},
			"profile": ambulatory,
		}, "25.00", "no-show-fee"),

		payoutCase("Payout: D wheelchair default fallback", base+"/api/payouts/resolve", map[string]any{
			"tripId":    "bench-d",
			"ownerKind": "facility",
			"ownerId":   "bench-no-profile",
			"trip":      map[string]any{"serviceLevel": "wheelchair", "distanceMiles": "10", "status": "completed"},
		}, "38.00", "default-fallback"),

		statusCase("Profile: invalid tiers -> 422", http.MethodPut, base+"/api/profiles/facility/bench-invalid", map[string]any{
			"rates": map[string]any{
				"ambulatory": []any{[]any{1, 5, 14}, []any{7, 10, 20}, 1.2},
				"wheelchair": []any{[]any{1, 5, 28}, 2},
				"stretcher":  []any{[]any{1, 5, 35}, 2.5},
			},
		}, http.StatusUnprocessableEntity),

		statusCase("Reports: end before start -> 400", http.MethodGet, base+"/api/reports/hourly?start=2024-03-10&end=2024-03-01", nil, http.StatusBadRequest),

		manualCase("Trip: finalize stores payout", "needs a seeded closed trip"),
		manualCase("Error: DB down -> 500", "stop Postgres and watch profile reads"),

		{
			Name: "Perf: preview throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/payouts/preview", map[string]any{
					"trip":    map[string]any{"serviceLevel": "ambulatory", "distanceMiles": "12.6", "status": "completed"},
					"profile": ambulatory,
				})
			},
		},
	}
}

func do(ctx context.Context, r *Runner, method, url string, body any) (*http.Response, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return resp, b, time.Since(start), err
}

// payoutCase posts a payout request and checks amount and source.
func payoutCase(name, url string, body any, wantAmount, wantSource string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			resp, b, latency, err := do(ctx, r, http.MethodPost, url, body)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if resp.StatusCode != http.StatusOK {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			var res struct {
				Amount decimal.Decimal `json:"amount"`
				Source string          `json:"source"`
			}
			if err := json.Unmarshal(b, &res); err != nil {
				return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
			}
			note := fmt.Sprintf("amount=%s source=%s", res.Amount.StringFixed(2), res.Source)
			if !res.Amount.Equal(decimal.RequireFromString(wantAmount)) || res.Source != wantSource {
				return Result{Status: "FAIL", Latency: latency, Note: note + " want " + wantAmount + "/" + wantSource}
			}
			return Result{Status: "PASS", Latency: latency, Note: note}
		},
	}
}

func statusCase(name, method, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			resp, _, latency, err := do(ctx, r, method, url, body)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			note := fmt.Sprintf("status=%d", resp.StatusCode)
			if resp.StatusCode != want {
				return Result{Status: "FAIL", Latency: latency, Note: note}
			}
			return Result{Status: "PASS", Latency: latency, Note: note}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				if resp.StatusCode != http.StatusOK {
					errCount++
				}
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func extractTables(dir string) ([]string, error) {
	files, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	var tables []string
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, m := range re.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
