// Command outagectl is the operator tool for the outage notifier: it captures
// provider documents, replays them through the decision engine, sends the
// daily summary and manages the stored notification state.
//
// Usage:
//
//	outagectl capture --out testdata/doc.json
//	outagectl replay testdata/doc.json --at "2025-11-09 11:30" --state artifacts/last-message.json
//	outagectl summary --send
//	outagectl state show
package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
