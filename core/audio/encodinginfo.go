package audio

const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Channels: DefaultChannels, Format: EncodingLinear16}
}

// EncodingInfo describes raw PCM audio exchanged with a device.
type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) channels() int {
	if e.Channels <= 0 {
		return 1
	}
	return e.Channels
}

// BytesPerFrame is the size of one sample across all channels.
func (e EncodingInfo) BytesPerFrame() int {
	return e.Format.ByteSize() * e.channels()
}

func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.BytesPerFrame()
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

// waveFormatTag is the WAVE format code of the encoding.
func (e encodingFormat) waveFormatTag() uint16 {
	switch e {
	case EncodingALaw:
		return 6
	case EncodingMulaw:
		return 7
	default:
		return 1
	}
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
