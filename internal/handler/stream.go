package handler

import (
	"errors"
	"fmt"
	"io"
)

// chunkSize is the unit in which backend bodies are relayed.
const chunkSize = 4096

// relay copies src to w in chunks of at most chunkSize bytes, calling flush
// after every chunk so the caller observes output as the backend produces it.
// It returns the number of bytes written to w.
func relay(w io.Writer, flush func(), src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := w.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, fmt.Errorf("write to caller: %w", werr)
			}
			flush()
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("read from upstream: %w", rerr)
		}
	}
}
