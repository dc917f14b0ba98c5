// Package codecdetect inspects finished MP4 exports: which video codec
// they carry and whether the container matches what the encoder was asked
// to produce.
package codecdetect

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec identifies the video codec of a track.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// ErrNoVideoTrack is returned when the container holds no video track.
var ErrNoVideoTrack = errors.New("codecdetect: no video track found")

// Info describes the video track of an MP4 file.
type Info struct {
	Codec       Codec
	Width       int
	Height      int
	DurationSec float64
	SampleCount int
	HasAudio    bool
}

// ProbeFile opens an MP4 file and describes its video track.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("codecdetect: open: %w", err)
	}
	defer f.Close()
	return Probe(f)
}

// Probe describes the video track read from r.
func Probe(r io.ReadSeeker) (Info, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("codecdetect: decode mp4: %w", err)
	}

	moov := mp4File.Moov
	if mp4File.IsFragmented() && mp4File.Init != nil {
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := Info{Codec: CodecUnknown}
	found := false
	for _, trak := range moov.Traks {
		switch handlerType(trak) {
		case "vide":
			if found {
				continue
			}
			info.Codec = trackCodec(trak)
			info.Width, info.Height = trackSize(trak)
			info.DurationSec = trackDuration(trak)
			info.SampleCount = trackSampleCount(trak)
			found = true
		case "soun":
			info.HasAudio = true
		}
	}
	if !found {
		return Info{}, ErrNoVideoTrack
	}
	return info, nil
}

// DetectFile reports only the codec of the file's video track.
func DetectFile(path string) (Codec, error) {
	info, err := ProbeFile(path)
	if err != nil {
		return CodecUnknown, err
	}
	return info.Codec, nil
}

func handlerType(trak *mp4.TrakBox) string {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return ""
	}
	return trak.Mdia.Hdlr.HandlerType
}

func trackCodec(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Minf == nil ||
		trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		case "vp09":
			return CodecVP9
		}
	}
	return CodecUnknown
}

// trackSize reads the track header dimensions, which are stored as 16.16
// fixed point.
func trackSize(trak *mp4.TrakBox) (int, int) {
	if trak.Tkhd == nil {
		return 0, 0
	}
	return int(trak.Tkhd.Width >> 16), int(trak.Tkhd.Height >> 16)
}

func trackDuration(trak *mp4.TrakBox) float64 {
	if trak.Mdia == nil || trak.Mdia.Mdhd == nil || trak.Mdia.Mdhd.Timescale == 0 {
		return 0
	}
	return float64(trak.Mdia.Mdhd.Duration) / float64(trak.Mdia.Mdhd.Timescale)
}

func trackSampleCount(trak *mp4.TrakBox) int {
	if trak.Mdia == nil || trak.Mdia.Minf == nil ||
		trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stts == nil {
		return 0
	}
	stts := trak.Mdia.Minf.Stbl.Stts
	total := 0
	for _, c := range stts.SampleCount {
		total += int(c)
	}
	return total
}
