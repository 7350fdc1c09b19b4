package audio

import (
	"encoding/binary"
	"io"
)

// WriteWAV wraps raw LINEAR16 PCM in a canonical 44-byte WAV header
// (16 kHz, mono, 16-bit) so the external encoder can consume it.
func WriteWAV(w io.Writer, pcm []byte) error {
	var header [44]byte

	byteRate := SampleRate * SampleWidth
	dataLen := uint32(len(pcm))

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:28], SampleRate)
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], SampleWidth) // block align
	binary.LittleEndian.PutUint16(header[34:36], SampleWidth*8)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(pcm)
	return err
}
