package audio

import (
	"strconv"
	"strings"
)

// pcmNormalize forces 16-bit PCM at 44.1 kHz stereo.
var pcmNormalize = []string{"-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2"}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func withNormalize(args []string, output string) []string {
	args = append(args, pcmNormalize...)
	return append(args, "-y", output)
}

// CutArgs trims the window [start, end) out of input.
func CutArgs(input, output string, start, end float64) []string {
	args := []string{
		"-i", input,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(end - start),
	}
	return withNormalize(args, output)
}

// FadeArgs applies a linear fade of the given direction.
func FadeArgs(input, output string, fade FadeType, duration float64) []string {
	args := []string{
		"-i", input,
		"-af", "afade=t=" + string(fade) + ":d=" + formatSeconds(duration),
	}
	return withNormalize(args, output)
}

// VocalArgs approximates the vocal line as the mono L-R difference.
func VocalArgs(input, output string) []string {
	return []string{
		"-i", input,
		"-af", "pan=mono|c0=0.5*c0+-0.5*c1",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-y", output,
	}
}

// MusicArgs passes the stereo image through unchanged.
func MusicArgs(input, output string) []string {
	args := []string{
		"-i", input,
		"-af", "pan=stereo|c0=c0|c1=c1",
	}
	return withNormalize(args, output)
}

// Band is one leg of the instrument split: a name and the filter chain that isolates it.
type Band struct {
	Name   string
	Filter string
}

// InstrumentBands are the fixed frequency windows used by the 4-band split.
var InstrumentBands = []Band{
	{Name: "vocals", Filter: "highpass=f=200,lowpass=f=3000"},
	{Name: "drums", Filter: "highpass=f=1000"},
	{Name: "bass", Filter: "lowpass=f=250"},
	{Name: "other", Filter: "highpass=f=250,lowpass=f=1000"},
}

func BandArgs(input, output string, band Band) []string {
	args := []string{
		"-i", input,
		"-af", band.Filter,
	}
	return withNormalize(args, output)
}

// ExportArgs scales the source volume and encodes it with the tier's codec parameters.
func ExportArgs(source, output string, volume float64, format, quality string) []string {
	args := []string{
		"-i", source,
		"-af", "volume=" + formatSeconds(volume),
	}
	args = append(args, QualitySettings(format, quality)...)
	return append(args, "-y", output)
}

var mp3Bitrates = map[string]string{
	"high":   "320k",
	"medium": "192k",
	"low":    "128k",
}

const defaultMP3Bitrate = "192k"

// QualitySettings maps a format and quality tier to codec parameters. Unknown mp3 tiers
// fall back to 192k, wav ignores the tier, and any other format gets no parameters.
func QualitySettings(format, quality string) []string {
	switch strings.ToLower(format) {
	case "mp3":
		bitrate, ok := mp3Bitrates[strings.ToLower(quality)]
		if !ok {
			bitrate = defaultMP3Bitrate
		}
		return []string{"-b:a", bitrate}
	case "wav":
		return []string{"-acodec", "pcm_s16le"}
	default:
		return nil
	}
}
