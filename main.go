// The main package for the noticeingest executable.
package main

import (
	"github.com/campusboard/notice-ingest/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
