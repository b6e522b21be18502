// Command opsreport computes dashboard figures and exports for an operations
// dataset without starting the HTTP server.
//
// Usage:
//
//	opsreport kpis data.csv --department IT --start 2024-01-01
//	opsreport kpis --sample --seed 7
//	opsreport export data.xlsx --out reports/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
