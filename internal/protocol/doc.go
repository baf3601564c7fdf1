// Package protocol defines the wire format of the mkimage daemon socket.
//
// Messages are newline-delimited JSON envelopes carrying a command name
// and an optional payload. Each connection holds a single request-response
// exchange; the typed request and result structs in this package are the
// payloads for the supported commands.
package protocol
