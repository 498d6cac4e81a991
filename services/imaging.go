package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// probeImage checks that data is a decodable image and returns its MIME
// type. Only the header is decoded.
func probeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", err
	}
	return imageMIME(data), nil
}

// imageMIME sniffs the content type of data for the Gemini inline part.
func imageMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImage reports whether data sniffs as an image type.
func IsImage(data []byte) bool {
	return strings.HasPrefix(imageMIME(data), "image/")
}
