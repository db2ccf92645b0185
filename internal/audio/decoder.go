package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrDecode marks a file that could not be decoded. Callers use
// errors.Is to distinguish decode failures from other errors.
var ErrDecode = errors.New("audio: decode failed")

// supportedExts are the container formats the decoder accepts. WAV is
// handled natively; the rest are transcoded through ffmpeg.
var supportedExts = map[string]bool{
	".wav":  true,
	".aiff": true,
	".aif":  true,
	".flac": true,
	".m4a":  true,
	".mp3":  true,
}

// SupportedFile reports whether the file name has a recognized audio
// extension.
func SupportedFile(name string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}

// Decoder turns a file path into a decoded Buffer.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Buffer, error)
}

// FileDecoder decodes local audio files: integer PCM WAV natively,
// everything else by transcoding to 16-bit PCM WAV with ffmpeg.
type FileDecoder struct {
	TempDir string        // scratch dir for transcodes, defaults to os.TempDir()
	Timeout time.Duration // per-file ffmpeg timeout, defaults to 2 minutes
}

func NewFileDecoder(tempDir string) *FileDecoder {
	return &FileDecoder{TempDir: tempDir}
}

func (d *FileDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return nil, fmt.Errorf("%w: %s: unsupported extension %q", ErrDecode, path, ext)
	}

	if ext == ".wav" {
		buf, err := ReadWAV(path)
		if err == nil {
			return buf, nil
		}
		// Float or compressed WAV variants still go through ffmpeg.
		buf, ferr := d.transcode(ctx, path)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		return buf, nil
	}

	buf, err := d.transcode(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return buf, nil
}

// transcode converts an audio file to 16-bit PCM WAV in the scratch dir,
// preserving sample rate and channel layout, then reads it back.
func (d *FileDecoder) transcode(ctx context.Context, inputPath string) (*Buffer, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, errors.New("ffmpeg not found on PATH, required for non-PCM-WAV input")
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tempDir := d.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(tempDir, "audioqc-*.wav")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		ffmpeg,
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}

	return ReadWAV(tmpPath)
}
