// logforge - Access Log Analyzer
//
// logforge reads web server access logs and writes a latency, status code,
// endpoint and per-minute report as JSON and CSV.
package main

import (
	"os"

	"github.com/ccollicutt/logforge/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
