package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

// healthcheckCmd probes the liveness endpoint and exits non-zero on
// failure. Intended as a container HEALTHCHECK target so images do not
// need curl or wget installed.
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe the server liveness endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := healthcheckURL
		if url == "" {
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			url = fmt.Sprintf("http://localhost:%s/healthz", port)
		}

		client := &http.Client{Timeout: healthcheckTimeout}
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("healthcheck request failed: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "endpoint to probe (default http://localhost:$SERVER_PORT/healthz)")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "request timeout")
}
