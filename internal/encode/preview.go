package encode

import (
	"image"
	"image/color"

	"github.com/jeffboody/terrain/internal/terrain"
)

// HeightmapImage renders the core samples of a tile as a grayscale
// image, scaling the tile's height range to 0..255. A flat tile renders
// mid-gray.
func HeightmapImage(t *terrain.Tile) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, terrain.SamplesTile, terrain.SamplesTile))

	min := float64(t.Min())
	max := float64(t.Max())
	span := max - min

	for m := 0; m < terrain.SamplesTile; m++ {
		for n := 0; n < terrain.SamplesTile; n++ {
			h := float64(t.Get(m, n))
			var v uint8
			if span > 0 {
				v = uint8(255.0 * (h - min) / span)
			} else {
				v = 128
			}
			img.SetGray(n, m, color.Gray{Y: v})
		}
	}
	return img
}

// NormalMapImage renders the tile's normal map with nx in the red
// channel and ny in the green channel, the encoding the renderer's
// shading pass expects.
func NormalMapImage(t *terrain.Tile) *image.RGBA {
	data := make([]byte, 2*terrain.SamplesNormal*terrain.SamplesNormal)
	t.GetNormalMap(data)

	img := image.NewRGBA(image.Rect(0, 0, terrain.SamplesNormal, terrain.SamplesNormal))
	for i := 0; i < terrain.SamplesNormal; i++ {
		for j := 0; j < terrain.SamplesNormal; j++ {
			idx := 2 * (terrain.SamplesNormal*i + j)
			img.SetRGBA(j, i, color.RGBA{
				R: data[idx],
				G: data[idx+1],
				B: 128,
				A: 255,
			})
		}
	}
	return img
}
