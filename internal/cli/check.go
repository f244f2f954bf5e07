package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/dbguard/internal/core/domain"
	"github.com/vietddude/dbguard/internal/core/resilience"
	redisclient "github.com/vietddude/dbguard/internal/infra/redis"
	"github.com/vietddude/dbguard/internal/infra/storage/postgres"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the configured stores and print their health",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type storeHealth struct {
	name string
	res  domain.HealthResult
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := domain.WithCaller(context.Background(), domain.Caller{RequestID: uuid.New().String()})

	// Open lazily so an unreachable store is reported as a row, not a startup error.
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		slog.Error("Invalid database config", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	exec := resilience.New(cfg.Retry.Policy(), postgres.NewClassifier(),
		resilience.WithHealthTimeout(cfg.Retry.HealthTimeout),
		resilience.WithProber(db),
	)

	results := []storeHealth{{"database", exec.CheckHealth(ctx)}}

	if cfg.Redis.URL != "" {
		client, err := redisclient.Open(cfg.Redis)
		if err != nil {
			slog.Error("Invalid redis config", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = client.Close()
		}()
		results = append(results, storeHealth{"cache", exec.Probe(ctx, "cache", client)})
	}

	if !printHealth(os.Stdout, results) {
		os.Exit(1)
	}
}

// printHealth writes one row per store and reports whether all are healthy.
func printHealth(out io.Writer, results []storeHealth) bool {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STORE\tHEALTHY\tLATENCY_MS\tERROR")

	healthy := true
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%t\t%d\t%s\n", r.name, r.res.IsHealthy, r.res.LatencyMs, r.res.Error)
		healthy = healthy && r.res.IsHealthy
	}
	_ = w.Flush()
	return healthy
}
