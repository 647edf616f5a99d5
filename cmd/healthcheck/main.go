// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the pokedex /health endpoint returns HTTP 200,
// and 1 otherwise. The port follows POKEDEX_PORT, defaulting to 8080.
// Compile with CGO_ENABLED=0 for a fully static binary.
package main

import (
	"net/http"
	"os"
	"strconv"
	"time"
)

func main() {
	port := 8080
	if v, err := strconv.Atoi(os.Getenv("POKEDEX_PORT")); err == nil && v > 0 {
		port = v
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://localhost:" + strconv.Itoa(port) + "/health")
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
