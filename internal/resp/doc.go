// Package resp implements the RESP2 wire format used by Redis clients.
//
// A protocol value is a Token: simple string, simple error, bulk string,
// null bulk string, integer, or an array of tokens nested to any depth.
//
// Decoding works on byte slices and returns the unconsumed suffix, so a
// connection can keep appending reads to one buffer:
//
//	t, rest, err := resp.Decode(buf)
//	switch {
//	case errors.Is(err, resp.ErrIncomplete):
//		// read more bytes and retry
//	case err != nil:
//		// malformed frame
//	}
//
// Encoding is total: every Token has exactly one canonical encoding.
package resp
