package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/crmsheet/internal/cli"
	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/storage"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record store status",
	Long: `Status reports record and cell counts and the database size. By default the
store is opened directly; with --server the numbers come from a running
crmsheet server instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat()
		if err != nil {
			return err
		}
		var st *models.Status
		if statusServerURL != "" {
			st, err = statusViaHTTP(cmd.Context(), statusServerURL)
		} else {
			st, err = localStatus(cmd.Context())
		}
		if err != nil {
			return err
		}
		return cli.WriteStatus(os.Stdout, st, format)
	},
}

func localStatus(ctx context.Context) (*models.Status, error) {
	cfg, _, logger, err := setup(false)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()
	st, err := storage.Summarize(ctx, store, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	st.Loader = cfg.Loader.Kind
	st.Sink = cfg.Sink.Kind
	st.WatchDirectories = cfg.Watch.Directories
	return st, nil
}

func statusViaHTTP(ctx context.Context, serverURL string) (*models.Status, error) {
	var st models.Status
	if err := getJSON(ctx, strings.TrimRight(serverURL, "/")+"/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// apiClient is used for calls to a running server.
var apiClient = &http.Client{Timeout: 30 * time.Second}

func getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return doJSON(req, v)
}

// doJSON sends req and decodes a JSON body into v. Error responses carry
// {"error": "..."}.
func doJSON(req *http.Request, v interface{}) error {
	resp, err := apiClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func init() {
	statusCmd.Flags().StringVar(&statusServerURL, "server", "", "server URL (empty = open the store directly)")
	rootCmd.AddCommand(statusCmd)
}
