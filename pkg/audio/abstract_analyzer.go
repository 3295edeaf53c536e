package audio

import (
	"context"
	"io"
)

// AbstractAnalyzer is the common part of everything that consumes PCM of a
// fixed encoding and channel layout.
type AbstractAnalyzer interface {
	io.Closer

	Encoding(context.Context) (Encoding, error)
	Channels(context.Context) (Channel, error)
}
