package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckTimeout int
	healthcheckURL     string
)

// healthcheckCmd probes /healthz, for container HEALTHCHECK use.
// Exits 0 when healthy, 1 when unhealthy or unreachable.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check whether the server is healthy",
	RunE:  runHealthcheck,
}

func init() {
	healthcheckCmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/healthz)")
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := healthcheckURL
	if url == "" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		url = fmt.Sprintf("http://localhost:%s/healthz", port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(healthcheckTimeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}
	defer res.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		fmt.Fprintf(os.Stderr, "invalid health response: %v\n", err)
		os.Exit(1)
	}

	if res.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server unhealthy: %s\n", payload.Status)
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "server healthy: %s\n", payload.Status)
	return nil
}
