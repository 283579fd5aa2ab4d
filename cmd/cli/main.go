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
	serverURL string
	apiKey    string
	format    bool
)

func main() {
	root := &cobra.Command{
		Use:   "playground-cli",
		Short: "CLI client for the Gleam playground",
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("PLAYGROUND_API_KEY"), "API key")

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Compile and run Gleam code (stdin when no file given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().BoolVar(&format, "format", false, "Also format the source")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "format [file]",
		Short: "Format Gleam code (stdin when no file given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFormat,
	})

	root.AddCommand(&cobra.Command{
		Use:   "share [file]",
		Short: "Save code as a shareable snippet (stdin when no file given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShare,
	})

	root.AddCommand(&cobra.Command{
		Use:   "get [snippet-id]",
		Short: "Fetch a shared snippet",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the deployed server version",
		RunE:  runVersion,
	})

	root.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE:  runHealth,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// readCode loads the first argument as a file, falling back to stdin.
func readCode(args []string) (string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runRun(_ *cobra.Command, args []string) error {
	code, err := readCode(args)
	if err != nil {
		return err
	}

	path := "/run"
	if format {
		path += "?format=true"
	}

	result, err := postCode(path, code)
	if err != nil {
		return err
	}

	printEvents(result)
	if formatted, ok := result["formatted"].(string); ok {
		fmt.Print(formatted)
	}
	return nil
}

func runFormat(_ *cobra.Command, args []string) error {
	code, err := readCode(args)
	if err != nil {
		return err
	}

	result, err := postCode("/format", code)
	if err != nil {
		return err
	}

	formatted, ok := result["formatted"].(string)
	if !ok {
		printEvents(result)
		return fmt.Errorf("source could not be formatted")
	}
	fmt.Print(formatted)
	return nil
}

func runShare(_ *cobra.Command, args []string) error {
	code, err := readCode(args)
	if err != nil {
		return err
	}

	result, err := postCode("/snippet", code)
	if err != nil {
		return err
	}

	id, ok := result["snippetID"].(string)
	if !ok {
		return fmt.Errorf("server returned no snippet ID: %v", result)
	}
	fmt.Println(id)
	return nil
}

func runGet(_ *cobra.Command, args []string) error {
	req, err := http.NewRequest("GET", serverURL+"/snippet/"+args[0], nil)
	if err != nil {
		return err
	}
	result, err := doJSON(req)
	if err != nil {
		return err
	}

	code, ok := result["code"].(string)
	if !ok {
		return fmt.Errorf("snippet not found: %v", result["error"])
	}
	fmt.Print(code)
	return nil
}

func runVersion(_ *cobra.Command, _ []string) error {
	req, err := http.NewRequest("GET", serverURL+"/version", nil)
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}

func runHealth(_ *cobra.Command, _ []string) error {
	req, err := http.NewRequest("GET", serverURL+"/health", nil)
	if err != nil {
		return err
	}
	result, err := doJSON(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	formatted, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(formatted))
	return nil
}

func postCode(path, code string) (map[string]any, error) {
	body, _ := json.Marshal(map[string]string{"code": code})

	req, err := http.NewRequest("POST", serverURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return doJSON(req)
}

func doJSON(req *http.Request) (map[string]any, error) {
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	// Generous to cover the compile stage on a cold BEAM toolchain.
	client := &http.Client{Timeout: 70 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return result, nil
}

// printEvents replays the event log to the local terminal, stderr lines
// to stderr.
func printEvents(result map[string]any) {
	events, _ := result["events"].([]any)
	for _, raw := range events {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		msg, _ := e["Message"].(string)
		if kind, _ := e["Kind"].(string); kind == "stderr" {
			fmt.Fprintln(os.Stderr, msg)
		} else {
			fmt.Println(msg)
		}
	}
}
