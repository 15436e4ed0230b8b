package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL         string
	token           string
	schedulerSecret string
	timeout         time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitsync-cli",
		Short: "SplitSync CLI tool",
		Long:  `A command line interface for interacting with the SplitSync API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the SplitSync API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("SPLITSYNC_TOKEN"), "Bearer token for authenticated endpoints")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Request timeout")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync pass for the authenticated user",
		Run: func(cmd *cobra.Command, args []string) {
			triggerSync()
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the scheduled pass over all eligible users",
		Run: func(cmd *cobra.Command, args []string) {
			triggerBatch()
		},
	}
	batchCmd.Flags().StringVar(&schedulerSecret, "scheduler-secret", os.Getenv("SPLITSYNC_SCHEDULER_SECRET"), "Scheduler shared secret")

	historyCmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List sync passes, or show one pass with its items",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				showHistory(args[0])
				return
			}
			listHistory()
		},
	}

	duoCmd := &cobra.Command{
		Use:   "duo",
		Short: "Show partner-linking status",
		Run: func(cmd *cobra.Command, args []string) {
			duoStatus()
		},
	}

	rootCmd.AddCommand(syncCmd, batchCmd, historyCmd, duoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func doRequest(method, path string, headers map[string]string) []byte {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(nil))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	return body
}

func triggerSync() {
	body := doRequest(http.MethodPost, "/api/v1/sync", nil)

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sync finished\n")
	fmt.Printf("Status: %s\n", result["status"])
	if id, ok := result["sync_history_id"].(string); ok && id != "" {
		fmt.Printf("History ID: %s\n", id)
	}
}

func triggerBatch() {
	body := doRequest(http.MethodPost, "/api/v1/sync/batch", map[string]string{
		"X-Scheduler-Secret": schedulerSecret,
	})

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Batch finished\n")
	fmt.Printf("Total users: %v\n", result["total_users"])
	fmt.Printf("Succeeded: %v\n", result["success_count"])
	fmt.Printf("Failed: %v\n", result["error_count"])
}

func listHistory() {
	body := doRequest(http.MethodGet, "/api/v1/sync/history", nil)

	var result []map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	for _, h := range result {
		fmt.Printf("%s  %-8s  %s\n", h["id"], h["status"], h["started_at"])
	}
}

func showHistory(id string) {
	body := doRequest(http.MethodGet, "/api/v1/sync/history/"+id, nil)

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out.String())
}

func duoStatus() {
	body := doRequest(http.MethodGet, "/api/v1/duo", nil)

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Mode: %s\n", result["mode"])
	if partner, ok := result["partner_user_id"].(string); ok && partner != "" {
		fmt.Printf("Partner: %s\n", partner)
	}
	if linked, ok := result["linked_at"].(string); ok && linked != "" {
		fmt.Printf("Linked at: %s\n", linked)
	}
}
