// Command clinicctl inspects the clinic directory from a terminal: it fetches
// the upstream rows, runs finder searches and lists the known zip codes,
// using the same configuration as the server.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; existing env vars win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
