package projector

import "github.com/agentwire/relay/pkg/stream"

// chunkEncodingBase64 is the only encoding the chunker emits today.
const chunkEncodingBase64 = "base64"

// emitChunks splits an oversized base64 payload into ordered chunk.delta
// events of at most maxChunkChars characters, followed by exactly one
// chunk.done. Base64 is ASCII, so byte slicing equals character slicing.
func (p *Projector) emitChunks(c *call, target stream.ChunkTarget, b64 string) {
	max := p.maxChunkChars
	if max <= 0 {
		max = DefaultMaxChunkChars
	}

	count := 0
	for offset := 0; offset < len(b64); offset += max {
		end := offset + max
		if end > len(b64) {
			end = len(b64)
		}
		c.emit(&stream.ChunkDelta{
			Envelope:   c.envelope(stream.KindChunkDelta, nil),
			Target:     target,
			ChunkIndex: count,
			Encoding:   chunkEncodingBase64,
			Data:       b64[offset:end],
		})
		count++
	}

	c.emit(&stream.ChunkDone{
		Envelope:   c.envelope(stream.KindChunkDone, nil),
		Target:     target,
		ChunkCount: count,
	})
}
