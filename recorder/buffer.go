package recorder

import "bytes"

// Buffer is the finalized, ordered PCM capture of one session. It is
// immutable once returned by Stop.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

// Empty reports whether the buffer holds no audio.
func (b Buffer) Empty() bool {
	return len(b.Samples) == 0
}

// Seconds returns the capture length: sampleCount / sampleRate.
func (b Buffer) Seconds() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// ByteLen returns the raw PCM payload size: sampleCount * bytesPerSample.
func (b Buffer) ByteLen() int {
	return len(b.Samples) * BytesPerSample
}

// WAV returns the buffer as playable RIFF/WAVE bytes (PCM, mono, 16-bit).
func (b Buffer) WAV() []byte {
	dataSize := b.ByteLen()
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	rate := b.SampleRate
	if rate == 0 {
		rate = SampleRate
	}

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)                               // chunk size
	writeUint16LE(buf, 1)                                // PCM
	writeUint16LE(buf, 1)                                // mono
	writeUint32LE(buf, uint32(rate))                     // sample rate
	writeUint32LE(buf, uint32(rate*BytesPerSample))      // byte rate
	writeUint16LE(buf, BytesPerSample)                   // block align
	writeUint16LE(buf, 8*BytesPerSample)                 // bits per sample

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))
	for _, s := range b.Samples {
		writeInt16LE(buf, s)
	}

	return buf.Bytes()
}

func writeUint16LE(w *bytes.Buffer, v uint16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}

func writeUint32LE(w *bytes.Buffer, v uint32) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 24))
}

func writeInt16LE(w *bytes.Buffer, v int16) {
	w.WriteByte(byte(v))
	w.WriteByte(byte(v >> 8))
}
