// Command tallyctl exports and summarizes expenses from a JSON file or a
// SQLite database, and issues development tokens for the API.
package main

import "os"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
