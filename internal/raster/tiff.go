package raster

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Minimal tiled-TIFF reader for the ASTER elevation rasters: classic and
// BigTIFF headers, both byte orders, one signed 16-bit sample per pixel,
// tiles stored uncompressed or with Deflate/LZW compression. Only the
// first IFD is used; overviews in the source files are ignored.

// TIFF tag IDs.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagSamplesPerPixel = 277
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339
)

// TIFF compression schemes.
const (
	compressionNone    = 1
	compressionLZW     = 5
	compressionDeflate = 8
	// some writers use the old deflate code
	compressionDeflateOld = 32946
)

const sampleFormatInt = 2

// tiffIFD holds the directory fields the elevation reader needs.
type tiffIFD struct {
	width          uint32
	height         uint32
	tileWidth      uint32
	tileHeight     uint32
	bitsPerSample  uint16
	samplesPerPix  uint16
	compression    uint16
	sampleFormat   uint16
	tileOffsets    []uint64
	tileByteCounts []uint64
}

func (ifd *tiffIFD) tilesAcross() int {
	return int((ifd.width + ifd.tileWidth - 1) / ifd.tileWidth)
}

func (ifd *tiffIFD) tilesDown() int {
	return int((ifd.height + ifd.tileHeight - 1) / ifd.tileHeight)
}

// tiffReader reads int16 sample tiles from a tiled TIFF.
type tiffReader struct {
	r   io.ReadSeeker
	bo  binary.ByteOrder
	ifd tiffIFD
}

// newTIFFReader parses the TIFF header and first IFD and validates that
// the file is a tiled raster of single int16 samples.
func newTIFFReader(r io.ReadSeeker) (*tiffReader, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading TIFF header: %w", err)
	}

	var bo binary.ByteOrder
	switch string(header[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, fmt.Errorf("invalid TIFF byte order: %x", header[0:2])
	}

	magic := bo.Uint16(header[2:4])
	isBigTIFF := magic == 43
	if magic != 42 && magic != 43 {
		return nil, fmt.Errorf("invalid TIFF magic: %d", magic)
	}

	var firstIFDOffset uint64
	if isBigTIFF {
		var bigHeader [8]byte
		if _, err := io.ReadFull(r, bigHeader[:]); err != nil {
			return nil, fmt.Errorf("reading BigTIFF header: %w", err)
		}
		firstIFDOffset = bo.Uint64(bigHeader[:])
	} else {
		firstIFDOffset = uint64(bo.Uint32(header[4:8]))
	}

	ifd, err := parseIFD(r, bo, firstIFDOffset, isBigTIFF)
	if err != nil {
		return nil, fmt.Errorf("parsing IFD: %w", err)
	}

	if ifd.samplesPerPix != 1 || ifd.bitsPerSample != 16 ||
		ifd.sampleFormat != sampleFormatInt {
		return nil, fmt.Errorf("unsupported sample layout: samples=%d bits=%d format=%d",
			ifd.samplesPerPix, ifd.bitsPerSample, ifd.sampleFormat)
	}
	if ifd.tileWidth == 0 || ifd.tileHeight == 0 {
		return nil, fmt.Errorf("not a tiled TIFF")
	}
	if len(ifd.tileOffsets) < ifd.tilesAcross()*ifd.tilesDown() {
		return nil, fmt.Errorf("tile offset table too short: %d < %d",
			len(ifd.tileOffsets), ifd.tilesAcross()*ifd.tilesDown())
	}

	return &tiffReader{r: r, bo: bo, ifd: ifd}, nil
}

// readTile reads and decompresses one source tile into int16 samples.
func (t *tiffReader) readTile(col, row int) ([]int16, error) {
	idx := row*t.ifd.tilesAcross() + col
	off := t.ifd.tileOffsets[idx]
	count := t.ifd.tileByteCounts[idx]

	raw := make([]byte, count)
	if _, err := t.r.Seek(int64(off), io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(t.r, raw); err != nil {
		return nil, fmt.Errorf("reading tile (%d,%d): %w", col, row, err)
	}

	want := int(t.ifd.tileWidth) * int(t.ifd.tileHeight) * 2
	switch t.ifd.compression {
	case compressionNone:
	case compressionDeflate, compressionDeflateOld:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("tile (%d,%d): %w", col, row, err)
		}
		out := make([]byte, want)
		if _, err := io.ReadFull(zr, out); err != nil {
			zr.Close()
			return nil, fmt.Errorf("tile (%d,%d): %w", col, row, err)
		}
		zr.Close()
		raw = out
	case compressionLZW:
		out, err := decompressTIFFLZW(raw)
		if err != nil {
			return nil, fmt.Errorf("tile (%d,%d): %w", col, row, err)
		}
		raw = out
	default:
		return nil, fmt.Errorf("unsupported compression scheme %d", t.ifd.compression)
	}

	if len(raw) < want {
		return nil, fmt.Errorf("tile (%d,%d): %d bytes, want %d", col, row, len(raw), want)
	}

	samples := make([]int16, want/2)
	for i := range samples {
		samples[i] = int16(t.bo.Uint16(raw[2*i:]))
	}
	return samples, nil
}

// parseIFD reads the directory at offset, keeping only the tags the
// elevation reader uses.
func parseIFD(r io.ReadSeeker, bo binary.ByteOrder, offset uint64, bigTIFF bool) (tiffIFD, error) {
	var ifd tiffIFD
	ifd.samplesPerPix = 1
	ifd.compression = compressionNone

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return ifd, err
	}

	var numEntries uint64
	if bigTIFF {
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return ifd, err
		}
		numEntries = bo.Uint64(buf[:])
	} else {
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return ifd, err
		}
		numEntries = uint64(bo.Uint16(buf[:]))
	}

	entrySize := 12
	if bigTIFF {
		entrySize = 20
	}
	entries := make([]byte, int(numEntries)*entrySize)
	if _, err := io.ReadFull(r, entries); err != nil {
		return ifd, err
	}

	for i := 0; i < int(numEntries); i++ {
		e := entries[i*entrySize : (i+1)*entrySize]
		tag := bo.Uint16(e[0:2])
		dtype := bo.Uint16(e[2:4])

		var count uint64
		var value []byte
		if bigTIFF {
			count = bo.Uint64(e[4:12])
			value = e[12:20]
		} else {
			count = uint64(bo.Uint32(e[4:8]))
			value = e[8:12]
		}

		vals, err := entryValues(r, bo, dtype, count, value, bigTIFF)
		if err != nil {
			return ifd, fmt.Errorf("tag %d: %w", tag, err)
		}
		if len(vals) == 0 {
			continue
		}

		switch tag {
		case tagImageWidth:
			ifd.width = uint32(vals[0])
		case tagImageLength:
			ifd.height = uint32(vals[0])
		case tagBitsPerSample:
			ifd.bitsPerSample = uint16(vals[0])
		case tagCompression:
			ifd.compression = uint16(vals[0])
		case tagSamplesPerPixel:
			ifd.samplesPerPix = uint16(vals[0])
		case tagTileWidth:
			ifd.tileWidth = uint32(vals[0])
		case tagTileLength:
			ifd.tileHeight = uint32(vals[0])
		case tagTileOffsets:
			ifd.tileOffsets = vals
		case tagTileByteCounts:
			ifd.tileByteCounts = vals
		case tagSampleFormat:
			ifd.sampleFormat = uint16(vals[0])
		}
	}

	return ifd, nil
}

// entryValues decodes a directory entry's integer values, following the
// offset indirection when the data does not fit inline.
func entryValues(r io.ReadSeeker, bo binary.ByteOrder, dtype uint16, count uint64, inline []byte, bigTIFF bool) ([]uint64, error) {
	var size uint64
	switch dtype {
	case 1, 2, 6, 7: // byte-sized
		size = 1
	case 3, 8: // short
		size = 2
	case 4, 9: // long
		size = 4
	case 16, 17: // long8
		size = 8
	default:
		// rationals, floats and other types are not used by the
		// elevation tags; skip them
		return nil, nil
	}

	total := size * count
	inlineMax := uint64(4)
	if bigTIFF {
		inlineMax = 8
	}

	var data []byte
	if total <= inlineMax {
		data = inline[:total]
	} else {
		var off uint64
		if bigTIFF {
			off = bo.Uint64(inline)
		} else {
			off = uint64(bo.Uint32(inline))
		}
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		data = make([]byte, total)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
	}

	vals := make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		switch size {
		case 1:
			vals[i] = uint64(data[i])
		case 2:
			vals[i] = uint64(bo.Uint16(data[2*i:]))
		case 4:
			vals[i] = uint64(bo.Uint32(data[4*i:]))
		case 8:
			vals[i] = bo.Uint64(data[8*i:])
		}
	}
	return vals, nil
}
