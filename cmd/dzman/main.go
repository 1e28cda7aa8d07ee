// dzman manages isolated DZ agent instances in containers.
package main

import (
	"os"

	"github.com/daemon-zero/dzman/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
