package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	watchServerURL string
	watchNoSync    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage inbox directories of a running server",
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbox directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(cmd.Context(), watchEndpoint(""), &out); err != nil {
			return err
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
		return nil
	},
}

var watchAddCmd = &cobra.Command{
	Use:   "add <dir>",
	Short: "Add an inbox directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		sync := !watchNoSync
		body, err := json.Marshal(map[string]interface{}{"path": abs, "sync": sync})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, watchEndpoint(""), bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if err := doJSON(req, nil); err != nil {
			return err
		}
		fmt.Printf("added %s\n", abs)
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove <dir>",
	Short: "Stop watching an inbox directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, watchEndpoint(abs), nil)
		if err != nil {
			return err
		}
		if err := doJSON(req, nil); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", abs)
		return nil
	},
}

// watchEndpoint returns the watch directories URL, with ?path= when path is set.
func watchEndpoint(path string) string {
	u := strings.TrimRight(watchServerURL, "/") + "/api/v1/watch/directories"
	if path != "" {
		u += "?path=" + url.QueryEscape(path)
	}
	return u
}

func init() {
	watchCmd.PersistentFlags().StringVar(&watchServerURL, "server", "http://localhost:8080", "server URL")
	watchAddCmd.Flags().BoolVar(&watchNoSync, "no-sync", false, "do not import files already in the directory")
	watchCmd.AddCommand(watchListCmd, watchAddCmd, watchRemoveCmd)
	rootCmd.AddCommand(watchCmd)
}
