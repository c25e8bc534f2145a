// Command gbsdctl boots and drives a gbsd kernel core.
package main

import (
	"fmt"
	"os"

	"github.com/Cartesian-School/gbsd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
