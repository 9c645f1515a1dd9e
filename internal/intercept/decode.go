package intercept

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var errDecodedTooLarge = errors.New("decoded body exceeds inspection limit")

// decodeContent undoes a Content-Encoding header value on a body copy.
// Codings are listed in the order they were applied, so they are removed
// from last to first.
func decodeContent(header string, body []byte, limit int64) ([]byte, error) {
	codings := strings.Split(header, ",")
	for idx := len(codings) - 1; idx >= 0; idx-- {
		coding := strings.ToLower(strings.TrimSpace(codings[idx]))
		var err error
		switch coding {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			body, err = readGzip(body, limit)
		case "deflate":
			body, err = readDeflate(body, limit)
		case "zstd":
			body, err = readZstd(body, limit)
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", coding)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s body: %w", coding, err)
		}
	}
	return body, nil
}

func readGzip(body []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readLimited(zr, limit)
}

// readDeflate accepts zlib-wrapped data as HTTP intends and falls back to
// raw deflate streams, which some servers send instead.
func readDeflate(body []byte, limit int64) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		defer zr.Close()
		if out, err := readLimited(zr, limit); err == nil || errors.Is(err, errDecodedTooLarge) {
			return out, err
		}
	}
	fr := flate.NewReader(bytes.NewReader(body))
	defer fr.Close()
	return readLimited(fr, limit)
}

func readZstd(body []byte, limit int64) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readLimited(dec, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, errDecodedTooLarge
	}
	return out, nil
}
