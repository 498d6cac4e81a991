package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeLLM answers by prompt kind and records what it was asked.
type fakeLLM struct {
	textReply     string
	textErr       error
	captionReply  string
	captionErr    error
	forensicReply string
	forensicErr   error

	textPrompts    []string
	captionCalls   int
	forensicCalls  int
	lastVisionMIME string
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.textPrompts = append(f.textPrompts, prompt)
	return f.textReply, f.textErr
}

func (f *fakeLLM) GenerateWithImage(_ context.Context, prompt string, _ []byte, mimeType string) (string, error) {
	f.lastVisionMIME = mimeType
	if prompt == imageClaimPrompt {
		f.captionCalls++
		return f.captionReply, f.captionErr
	}
	f.forensicCalls++
	return f.forensicReply, f.forensicErr
}

type fakeSentiment struct {
	pred   SentimentPrediction
	err    error
	inputs []string
}

func (f *fakeSentiment) Classify(_ context.Context, text string) (SentimentPrediction, error) {
	f.inputs = append(f.inputs, text)
	return f.pred, f.err
}

type fakeSimilarity struct {
	score float64
	err   error
	texts []string
}

func (f *fakeSimilarity) Similarity(_ context.Context, _ []byte, text string) (float64, error) {
	f.texts = append(f.texts, text)
	return f.score, f.err
}

type fetchCall struct {
	url     string
	timeout time.Duration
}

type fakeFetcher struct {
	images map[string][]byte
	err    error
	calls  []fetchCall
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, timeout time.Duration) ([]byte, error) {
	f.calls = append(f.calls, fetchCall{url: url, timeout: timeout})
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.images[url]
	if !ok {
		return nil, ErrImageFetch
	}
	return data, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type ifdEntry struct {
	tag, kind uint16
	count     uint32
	value     [4]byte
}

// testTIFF builds a little-endian TIFF header with a single IFD0 holding
// entries, all values inline.
func testTIFF(entries ...ifdEntry) []byte {
	var tiff bytes.Buffer
	tiff.WriteString("II")
	binary.Write(&tiff, binary.LittleEndian, uint16(42))
	binary.Write(&tiff, binary.LittleEndian, uint32(8))
	binary.Write(&tiff, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&tiff, binary.LittleEndian, e.tag)
		binary.Write(&tiff, binary.LittleEndian, e.kind)
		binary.Write(&tiff, binary.LittleEndian, e.count)
		tiff.Write(e.value[:])
	}
	binary.Write(&tiff, binary.LittleEndian, uint32(0)) // next IFD
	return tiff.Bytes()
}

func orientationEntry() ifdEntry {
	return ifdEntry{tag: 0x0112, kind: 3, count: 1, value: [4]byte{1}}
}

// brokenGPSEntries is a camera Make plus a GPS IFD pointer far past the
// end of the block, as written by some phone firmwares.
func brokenGPSEntries() []ifdEntry {
	return []ifdEntry{
		{tag: 0x010F, kind: 2, count: 4, value: [4]byte{'C', 'a', 'm', 0}},
		{tag: 0x8825, kind: 4, count: 1, value: [4]byte{0xFF, 0xFF, 0x00, 0x00}},
	}
}

// testJPEGWithExif returns a JPEG carrying an APP1 Exif segment holding
// tiff, or a single Orientation tag when tiff is nil.
func testJPEGWithExif(t *testing.T, tiff ...[]byte) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	raw := buf.Bytes()

	block := testTIFF(orientationEntry())
	if len(tiff) > 0 {
		block = tiff[0]
	}
	payload := append([]byte("Exif\x00\x00"), block...)
	var app1 bytes.Buffer
	app1.Write([]byte{0xFF, 0xE1})
	binary.Write(&app1, binary.BigEndian, uint16(len(payload)+2))
	app1.Write(payload)

	out := append([]byte{}, raw[:2]...)
	out = append(out, app1.Bytes()...)
	return append(out, raw[2:]...)
}

// testPNGWithExif inserts an eXIf chunk right after IHDR.
func testPNGWithExif(t *testing.T) []byte {
	t.Helper()
	raw := testPNG(t)
	data := testTIFF(orientationEntry())

	var chunk bytes.Buffer
	binary.Write(&chunk, binary.BigEndian, uint32(len(data)))
	chunk.WriteString("eXIf")
	chunk.Write(data)
	binary.Write(&chunk, binary.BigEndian, crc32.ChecksumIEEE(append([]byte("eXIf"), data...)))

	// signature (8) + IHDR length, type, 13 data bytes, crc
	ihdrEnd := 8 + 4 + 4 + 13 + 4
	out := append([]byte{}, raw[:ihdrEnd]...)
	out = append(out, chunk.Bytes()...)
	return append(out, raw[ihdrEnd:]...)
}

// testWebP returns a RIFF/WEBP container with the given chunks. Chunk
// bodies are not real image data.
func testWebP(chunks map[string][]byte, order ...string) []byte {
	var body bytes.Buffer
	body.WriteString("WEBP")
	for _, kind := range order {
		data := chunks[kind]
		body.WriteString(kind)
		binary.Write(&body, binary.LittleEndian, uint32(len(data)))
		body.Write(data)
		if len(data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}
