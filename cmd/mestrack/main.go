// Command mestrack records hostel departures and returns and reports which
// days qualify for a mess-fee reduction.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // --tz must work on hosts without a zoneinfo database

	"github.com/roach88/mestrack/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
