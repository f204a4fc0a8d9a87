package grpc

// rawCodec is a no-op gRPC codec: it ships []byte payloads untouched and
// decodes responses only far enough to measure their length, discarding the
// bytes themselves so the transport doesn't error on EOF reading the full
// response body it has no use for.
type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	default:
		return nil, errUnsupportedType
	}
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	switch p := v.(type) {
	case *[]byte:
		*p = append((*p)[:0], data...)
		return nil
	case *responseLen:
		*p = responseLen(len(data))
		return nil
	default:
		return errUnsupportedType
	}
}

// responseLen is the decode target used by Transport.Write: it captures
// only how many bytes came back, never the payload itself.
type responseLen int
