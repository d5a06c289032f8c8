package trace

import (
	"errors"
	"fmt"
	"io"
)

// FrameSize is the encoded size of one frame.
const FrameSize = 5

// ErrMalformedFrame is returned when fewer than FrameSize bytes are
// available at a frame boundary.
var ErrMalformedFrame = errors.New("trace: malformed frame")

// EncodeFrame writes f into dst[:FrameSize] in wire order.
// It panics if dst is shorter than FrameSize.
func EncodeFrame(dst []byte, f Frame) {
	_ = dst[FrameSize-1]
	dst[0] = byte(f.Speed)
	dst[1] = byte(f.Lateral)
	dst[2] = byte(f.Turn)
	dst[3] = byte(f.Aux)
	dst[4] = byte(f.Lift)
}

// AppendFrame appends the encoding of f to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	return append(dst, byte(f.Speed), byte(f.Lateral), byte(f.Turn), byte(f.Aux), byte(f.Lift))
}

// DecodeFrame decodes the frame at the start of src.
func DecodeFrame(src []byte) (Frame, error) {
	if len(src) < FrameSize {
		return Frame{}, fmt.Errorf("%w: %d of %d bytes", ErrMalformedFrame, len(src), FrameSize)
	}
	return Frame{
		Speed:   int8(src[0]),
		Lateral: int8(src[1]),
		Turn:    int8(src[2]),
		Aux:     int8(src[3]),
		Lift:    int8(src[4]),
	}, nil
}

// MarshalFrames encodes frames back to back.
func MarshalFrames(frames []Frame) []byte {
	out := make([]byte, 0, len(frames)*FrameSize)
	for _, f := range frames {
		out = AppendFrame(out, f)
	}
	return out
}

// UnmarshalFrames decodes a whole stream. A trailing partial frame is
// reported as ErrMalformedFrame together with the frames decoded so far.
func UnmarshalFrames(data []byte) ([]Frame, error) {
	frames := make([]Frame, 0, len(data)/FrameSize)
	for off := 0; off < len(data); off += FrameSize {
		f, err := DecodeFrame(data[off:])
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Encoder writes frames to an underlying stream one at a time.
type Encoder struct {
	w       io.Writer
	scratch [FrameSize]byte
	n       int
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one frame.
func (e *Encoder) Encode(f Frame) error {
	EncodeFrame(e.scratch[:], f)
	if _, err := e.w.Write(e.scratch[:]); err != nil {
		return err
	}
	e.n++
	return nil
}

// Count returns the number of frames written.
func (e *Encoder) Count() int { return e.n }

// Decoder reads frames from an underlying stream one at a time.
type Decoder struct {
	r       io.Reader
	scratch [FrameSize]byte
	n       int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the next frame. It returns io.EOF at a clean frame
// boundary and ErrMalformedFrame when the stream ends mid-frame.
// Other read errors are returned unchanged.
func (d *Decoder) Decode() (Frame, error) {
	n, err := io.ReadFull(d.r, d.scratch[:])
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Frame{}, fmt.Errorf("%w: %d of %d bytes at frame %d",
			ErrMalformedFrame, n, FrameSize, d.n)
	default:
		return Frame{}, err
	}
	f, _ := DecodeFrame(d.scratch[:])
	d.n++
	return f, nil
}

// Count returns the number of frames decoded.
func (d *Decoder) Count() int { return d.n }
