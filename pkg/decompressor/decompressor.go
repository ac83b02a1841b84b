// Package decompressor turns encoded upload bodies back into raw archive
// bytes. Only the read side exists: stored archives are never re-encoded.
package decompressor

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

const (
	GzipType    = "gzip"
	ZlibType    = "zlib"
	DeflateType = "deflate"
)

func NewReader(encoding string, reader io.Reader) (io.ReadCloser, error) {
	var decompressor io.ReadCloser
	var err error

	switch strings.ToLower(encoding) {
	case GzipType:
		decompressor, err = gzip.NewReader(reader)
	case ZlibType:
		decompressor, err = zlib.NewReader(reader)
	case DeflateType:
		decompressor = flate.NewReader(reader)
	case "":
		decompressor = io.NopCloser(reader)
	default:
		return nil, fmt.Errorf("invalid encoding type %s", encoding)
	}

	if err != nil {
		return nil, fmt.Errorf("error creating %s reader: %w", encoding, err)
	}

	return decompressor, nil
}
