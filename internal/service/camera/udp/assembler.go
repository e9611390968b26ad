package udp

import "bytes"

const maxFrameSize = 1 << 20

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// assembler rebuilds JPEG frames from datagrams, one buffer per sender.
// A datagram starting with the JPEG SOI marker begins a new frame; one
// ending with the EOI marker completes it.
type assembler struct {
	buffers map[string]*bytes.Buffer
}

func newAssembler() *assembler {
	return &assembler{buffers: make(map[string]*bytes.Buffer)}
}

// push appends data from sender and returns a complete frame when one ends.
func (a *assembler) push(sender string, data []byte) ([]byte, bool) {
	buf, ok := a.buffers[sender]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[sender] = buf
	}

	if bytes.HasPrefix(data, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// Mid-frame datagram without a start: wait for the next frame.
		return nil, false
	}
	buf.Write(data)

	if buf.Len() > maxFrameSize {
		buf.Reset()
		return nil, false
	}

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil, false
	}

	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}
