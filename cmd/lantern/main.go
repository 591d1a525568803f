// Command lantern is the static-site generator and publishing pipeline
// entrypoint for the geospatial metadata catalogue (spec.md sec 1).
package main

import (
	"os"

	"github.com/antarctica/lantern-go/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
