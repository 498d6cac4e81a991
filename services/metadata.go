package services

import (
	"bytes"
	"encoding/binary"

	"credcheck/models"

	"github.com/rwcarlsen/goexif/exif"
)

var (
	pngSignature   = []byte("\x89PNG\r\n\x1a\n")
	exifJPEGHeader = []byte("Exif\x00\x00")
)

// checkMetadata reports whether the image carries an EXIF block. Presence
// is what counts: a block whose sub-IFDs (GPS, maker notes) are damaged
// still marks the image as camera-originated.
func checkMetadata(image []byte) models.MetadataCheck {
	if hasExif(image) {
		return models.MetadataCheck{HasExif: true, Flag: flagExifPresent}
	}
	return models.MetadataCheck{HasExif: false, Flag: flagExifAbsent}
}

func hasExif(image []byte) bool {
	x, err := exif.Decode(bytes.NewReader(image))
	if x != nil && (err == nil || !exif.IsCriticalError(err)) {
		return true
	}
	switch {
	case bytes.HasPrefix(image, []byte{0xFF, 0xD8}):
		return jpegHasExif(image)
	case bytes.HasPrefix(image, pngSignature):
		return pngHasExif(image)
	case len(image) >= 12 && string(image[0:4]) == "RIFF" && string(image[8:12]) == "WEBP":
		return webpHasExif(image)
	}
	return false
}

// jpegHasExif walks the marker segments before the image data looking for
// an APP1 segment with the Exif header.
func jpegHasExif(data []byte) bool {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return false
		}
		marker := data[pos+1]
		if marker == 0xFF {
			pos++
			continue
		}
		// start of scan or end of image: no more metadata segments
		if marker == 0xDA || marker == 0xD9 {
			return false
		}
		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if length < 2 || pos+2+length > len(data) {
			return false
		}
		segment := data[pos+4 : pos+2+length]
		if marker == 0xE1 && len(segment) > len(exifJPEGHeader) && bytes.HasPrefix(segment, exifJPEGHeader) {
			return true
		}
		pos += 2 + length
	}
	return false
}

// pngHasExif looks for a non-empty eXIf chunk.
func pngHasExif(data []byte) bool {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		kind := string(data[pos+4 : pos+8])
		if length < 0 || pos+12+length > len(data) {
			return false
		}
		switch kind {
		case "eXIf":
			return length > 0
		case "IEND":
			return false
		}
		pos += 12 + length
	}
	return false
}

// webpHasExif looks for a non-empty EXIF chunk in the RIFF container.
func webpHasExif(data []byte) bool {
	pos := 12
	for pos+8 <= len(data) {
		kind := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		if size < 0 || pos+8+size > len(data) {
			return false
		}
		if kind == "EXIF" {
			return size > 0
		}
		pos += 8 + size + size&1
	}
	return false
}
