// esmctl is a CLI client for the extended-memory REST API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	apiFlag string

	rootCmd = &cobra.Command{
		Use:   "esmctl",
		Short: "CLI client for the extended-memory REST API",
	}
)

func client() *resty.Client {
	return resty.New().
		SetBaseURL(apiFlag).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
}

// call executes req and prints the response body, failing on non-2xx.
func call(req *resty.Request, method, url string) error {
	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	if body := resp.String(); body != "" {
		fmt.Fprintln(os.Stdout, body)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "extended-memory service base URL")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
