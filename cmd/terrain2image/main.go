// Command terrain2image renders a persisted tile as a preview image:
// a grayscale heightmap or a normal map, encoded as PNG or WebP.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"strconv"

	"github.com/jeffboody/terrain/internal/encode"
	"github.com/jeffboody/terrain/internal/terrain"
)

func main() {
	var (
		format  string
		quality int
		normals bool
	)

	flag.StringVar(&format, "format", "png", "Preview encoding: png, webp")
	flag.IntVar(&quality, "quality", 85, "WebP quality 1-100")
	flag.BoolVar(&normals, "normals", false, "Render the normal map instead of the heightmap")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: terrain2image [flags] <base> <zoom> <x> <y> <output>\n\n")
		fmt.Fprintf(os.Stderr, "Render a tile from the database under base as a preview image.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 5 {
		flag.Usage()
		os.Exit(1)
	}

	base := args[0]
	zoom := parseInt(args[1])
	x := parseInt(args[2])
	y := parseInt(args[3])
	output := args[4]

	t, err := terrain.Import(base, x, y, zoom)
	if err != nil {
		log.Fatalf("importing tile: %v", err)
	}
	if t == nil {
		log.Fatalf("tile %d/%d/%d does not exist under %s", zoom, x, y, base)
	}

	enc, err := encode.NewEncoder(format, quality)
	if err != nil {
		log.Fatal(err)
	}

	var img image.Image
	if normals {
		img = encode.NormalMapImage(t)
	} else {
		img = encode.HeightmapImage(t)
	}

	data, err := enc.Encode(img)
	if err != nil {
		log.Fatalf("encoding preview: %v", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		log.Fatalf("writing %s: %v", output, err)
	}

	log.Printf("%s: %d/%d/%d min=%d max=%d flags=%#x",
		output, zoom, x, y, t.Min(), t.Max(), t.Flags())
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid argument %q: %v", s, err)
	}
	return v
}
