package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Kicks off a harvest job on a running server. Mostly useful for poking a
// deployed instance without shelling into it.
func main() {
	base := flag.String("base", "http://localhost:8081", "server base URL")
	source := flag.String("source", "", "source id to harvest (required)")
	dateRange := flag.String("range", "", "optional date window YYYY-MM-DD,YYYY-MM-DD")
	flag.Parse()

	if *source == "" {
		fmt.Println("Missing -source flag")
		os.Exit(2)
	}

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	endpoint := fmt.Sprintf("%s/api/v1/harvest/%s", strings.TrimRight(*base, "/"), url.PathEscape(*source))
	if *dateRange != "" {
		endpoint += "?range=" + url.QueryEscape(*dateRange)
	}

	req, err := http.NewRequest("POST", endpoint, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-Admin-Secret", adminSecret)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %s\n%s\n", resp.Status, body)
	if resp.StatusCode != http.StatusAccepted {
		os.Exit(1)
	}
}
