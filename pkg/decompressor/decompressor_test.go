package decompressor

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
)

func TestDecompressGzip(t *testing.T) {
	payload := []byte("some archive content here")

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err := writer.Write(payload)
	assert.NoError(t, err, "writing test payload should work")
	assert.NoError(t, writer.Close(), "closing the gzip writer should work")

	reader, err := NewReader("gzip", &buf)
	assert.NoError(t, err, "creating the gzip reader should work")

	result, err := io.ReadAll(reader)
	assert.NoError(t, err, "reading the decompressed data should work")
	assert.Equal(t, payload, result, "decompressed data should match the original")
	assert.NoError(t, reader.Close(), "closing the reader should work")
}

func TestDecompressZlib(t *testing.T) {
	payload := []byte("some archive content here")

	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	_, err := writer.Write(payload)
	assert.NoError(t, err, "writing test payload should work")
	assert.NoError(t, writer.Close(), "closing the zlib writer should work")

	reader, err := NewReader("zlib", &buf)
	assert.NoError(t, err, "creating the zlib reader should work")

	result, err := io.ReadAll(reader)
	assert.NoError(t, err, "reading the decompressed data should work")
	assert.Equal(t, payload, result, "decompressed data should match the original")
}

func TestDecompressDeflate(t *testing.T) {
	payload := []byte("some archive content here")

	var buf bytes.Buffer
	writer, err := flate.NewWriter(&buf, flate.DefaultCompression)
	assert.NoError(t, err, "creating the flate writer should work")
	_, err = writer.Write(payload)
	assert.NoError(t, err, "writing test payload should work")
	assert.NoError(t, writer.Close(), "closing the flate writer should work")

	reader, err := NewReader("deflate", &buf)
	assert.NoError(t, err, "creating the deflate reader should work")

	result, err := io.ReadAll(reader)
	assert.NoError(t, err, "reading the decompressed data should work")
	assert.Equal(t, payload, result, "decompressed data should match the original")
}

func TestEmptyEncodingPassesThrough(t *testing.T) {
	payload := "raw bytes untouched"

	reader, err := NewReader("", strings.NewReader(payload))
	assert.NoError(t, err, "empty encoding should produce a passthrough reader")

	result, err := io.ReadAll(reader)
	assert.NoError(t, err, "reading the passthrough data should work")
	assert.Equal(t, payload, string(result), "passthrough data should be untouched")
}

func TestInvalidEncodingIsRejected(t *testing.T) {
	_, err := NewReader("rar", strings.NewReader("anything"))
	assert.Error(t, err, "an unknown encoding should be rejected")
}

func TestEncodingIsCaseInsensitive(t *testing.T) {
	payload := []byte("some archive content here")

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err := writer.Write(payload)
	assert.NoError(t, err, "writing test payload should work")
	assert.NoError(t, writer.Close(), "closing the gzip writer should work")

	reader, err := NewReader("GZIP", &buf)
	assert.NoError(t, err, "uppercase encoding should be accepted")

	result, err := io.ReadAll(reader)
	assert.NoError(t, err, "reading the decompressed data should work")
	assert.Equal(t, payload, result, "decompressed data should match the original")
}
