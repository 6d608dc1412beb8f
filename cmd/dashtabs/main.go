// dashtabs is a terminal dashboard browser with cascading filters.
package main

import (
	"os"

	"github.com/jask/dashtabs/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
