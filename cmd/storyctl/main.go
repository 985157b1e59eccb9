// Command storyctl builds case-count stories from a local CSV or Parquet file
// and prints them as tables or JSON.
//
// Usage:
//
//	storyctl regions --data data/mock/cases.csv
//	storyctl story Leeds --segments 3 --cursor 2
//
// Every flag can also be set through a .storyctl.yaml file or a STORYCTL_
// prefixed environment variable (e.g. STORYCTL_DATA).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
