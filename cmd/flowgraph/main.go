// Command flowgraph runs and inspects YAML dataflow blueprints.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
