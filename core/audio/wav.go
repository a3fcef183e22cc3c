package audio

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// EncodeWAV wraps raw PCM in a RIFF/WAVE container.
func EncodeWAV(pcm []byte, info EncodingInfo) []byte {
	if info.IsZero() {
		info = GetDefaultEncodingInfo()
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, info.Format.waveFormatTag())
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.channels()))
	_ = binary.Write(buf, binary.LittleEndian, uint32(info.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(info.BytesPerSecond()))
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.BytesPerFrame()))
	_ = binary.Write(buf, binary.LittleEndian, uint16(info.Format.ByteSize()*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
