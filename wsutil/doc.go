// Package wsutil provides the message-level primitives the connection
// machine in package wsconn is built on: a fragmenting Reader that turns a
// stream of frames into a stream of message payloads, a fragmenting Writer
// that does the reverse, and FrameHandlers that answer control frames
// (ping/pong/close) the way RFC 6455 requires.
package wsutil
