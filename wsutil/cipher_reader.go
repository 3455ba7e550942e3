package wsutil

import (
	"io"

	ws "github.com/miktim/WebSocketServer"
)

// CipherReader unmasks a masked frame payload as it is streamed through Read,
// tracking the byte offset so the mask rotates correctly across short reads.
type CipherReader struct {
	r    io.Reader
	mask [4]byte
	pos  int
}

// NewCipherReader wraps r, unmasking bytes read through it with mask.
func NewCipherReader(r io.Reader, mask [4]byte) *CipherReader {
	return &CipherReader{r: r, mask: mask}
}

func (c *CipherReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	ws.Cipher(p[:n], c.mask, c.pos)
	c.pos += n
	return n, err
}
