package terrain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zlib"
)

const (
	// Magic identifies a tile file. Stored little-endian; a reader that
	// sees it byte-swapped decodes the remaining header fields big-endian.
	Magic = 0x7EBB00D9

	// HeaderSize is the fixed on-disk header size: four 32-bit integers
	// [magic, min, max, flags].
	HeaderSize = 16

	// payloadBytes is the decompressed sample payload size.
	payloadBytes = SamplesTotal * SamplesTotal * 2
)

// Path returns the on-disk location of tile (zoom, x, y) under base.
func Path(base string, x, y, zoom int) string {
	return filepath.Join(base, "terrainv2",
		fmt.Sprintf("%d", zoom), fmt.Sprintf("%d", x),
		fmt.Sprintf("%d.terrain", y))
}

// Export writes the tile under base as
// <base>/terrainv2/<zoom>/<x>/<y>.terrain. The write is atomic: data goes
// to a sibling .part file which is renamed into place on success and
// unlinked on failure. Directories are created as needed. min/max are
// recomputed first if still unset.
func (t *Tile) Export(base string) error {
	fname := Path(base, t.X, t.Y, t.Zoom)
	pname := fname + ".part"

	if err := os.MkdirAll(filepath.Dir(fname), 0755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", fname, err)
	}

	t.updateMinMax()

	f, err := os.Create(pname)
	if err != nil {
		return fmt.Errorf("creating %s: %w", pname, err)
	}

	if err := t.write(f); err != nil {
		f.Close()
		os.Remove(pname)
		return fmt.Errorf("writing %s: %w", pname, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(pname)
		return fmt.Errorf("closing %s: %w", pname, err)
	}

	if err := os.Rename(pname, fname); err != nil {
		os.Remove(pname)
		return fmt.Errorf("renaming %s: %w", pname, err)
	}
	return nil
}

func (t *Tile) write(w io.Writer) error {
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(int32(t.min)))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(int32(t.max)))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(int32(t.flags)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	raw := make([]byte, payloadBytes)
	for i, h := range t.data {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(h))
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Import reads the tile (zoom, x, y) from under base. A missing file is
// not an error: Import returns (nil, nil) so sparse pyramids read cleanly.
// A present but corrupt file (bad magic, truncated header, wrong
// decompressed size) is an error.
func Import(base string, x, y, zoom int) (*Tile, error) {
	f, err := os.Open(Path(base, x, y, zoom))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	t, err := Read(f, x, y, zoom)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Path(base, x, y, zoom), err)
	}
	return t, nil
}

// Read decodes a tile from r.
func Read(r io.Reader, x, y, zoom int) (*Tile, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	min, max, flags, err := decodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening sample stream: %w", err)
	}
	defer zr.Close()

	raw := make([]byte, payloadBytes)
	if _, err := io.ReadFull(zr, raw); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	// the stream must expand to exactly the payload size
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("sample stream larger than %d bytes", payloadBytes)
	}

	t := &Tile{
		X:     x,
		Y:     y,
		Zoom:  zoom,
		min:   min,
		max:   max,
		flags: flags,
	}
	for i := range t.data {
		t.data[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return t, nil
}

// ReadData decodes a tile from an in-memory buffer.
func ReadData(buf []byte, x, y, zoom int) (*Tile, error) {
	return Read(bytes.NewReader(buf), x, y, zoom)
}

// ReadHeader reads only the header of tile (zoom, x, y) under base.
func ReadHeader(base string, x, y, zoom int) (min, max int16, flags int, err error) {
	f, err := os.Open(Path(base, x, y, zoom))
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("reading header: %w", err)
	}
	return decodeHeader(hdr)
}

// decodeHeader parses the 16-byte header, accepting either byte order:
// the magic determines which order the remaining fields use.
func decodeHeader(hdr [HeaderSize]byte) (min, max int16, flags int, err error) {
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	switch magic {
	case Magic:
		min = int16(int32(binary.LittleEndian.Uint32(hdr[4:8])))
		max = int16(int32(binary.LittleEndian.Uint32(hdr[8:12])))
		flags = int(int32(binary.LittleEndian.Uint32(hdr[12:16])))
	case swapU32(Magic):
		min = int16(int32(binary.BigEndian.Uint32(hdr[4:8])))
		max = int16(int32(binary.BigEndian.Uint32(hdr[8:12])))
		flags = int(int32(binary.BigEndian.Uint32(hdr[12:16])))
	default:
		return 0, 0, 0, fmt.Errorf("invalid magic=0x%X", magic)
	}
	return min, max, flags, nil
}

func swapU32(v uint32) uint32 {
	return v<<24 | (v<<8)&0x00FF0000 | (v>>8)&0x0000FF00 | v>>24
}

// Bytes returns the in-memory size of the tile's sample grid. Used by the
// build cache for memory accounting.
func (t *Tile) Bytes() int64 {
	return int64(payloadBytes)
}
