// Command makenull exports the empty world tile (0, 0, 0). Renderers
// use it as the placeholder for regions the database does not cover.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jeffboody/terrain/internal/terrain"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: makenull [base]\n\n")
		fmt.Fprintf(os.Stderr, "Export the empty world tile under base (default \".\").\n")
	}
	flag.Parse()

	base := "."
	if args := flag.Args(); len(args) == 1 {
		base = args[0]
	} else if len(args) > 1 {
		flag.Usage()
		os.Exit(1)
	}

	t := terrain.New(0, 0, 0)
	if err := t.Export(base); err != nil {
		log.Fatalf("export failed: %v", err)
	}
}
