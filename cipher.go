package ws

// Cipher applies the RFC 6455 masking transform to payload in place using
// mask. offset is the number of bytes of this same logical stream already
// ciphered before payload, so that a masked frame can be processed in
// chunks (as a streaming reader does) and still XOR each byte with the
// correct rotation of the key.
//
// The same transform masks and unmasks: XOR is its own inverse.
// See https://tools.ietf.org/html/rfc6455#section-5.3
func Cipher(payload []byte, mask [4]byte, offset int) {
	for i := range payload {
		payload[i] ^= mask[(offset+i)%4]
	}
}
