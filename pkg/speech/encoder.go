package speech

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Encoder re-encodes the audio file at in into out.
type Encoder interface {
	Encode(ctx context.Context, in, out string) error
}

// FFmpegEncoder shells out to ffmpeg to produce a constant bitrate mp3.
type FFmpegEncoder struct {
	Binary  string
	Codec   string
	Bitrate string
}

var _ Encoder = (*FFmpegEncoder)(nil)

func NewFFmpegEncoder(binary string) *FFmpegEncoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegEncoder{
		Binary:  binary,
		Codec:   "libmp3lame",
		Bitrate: "128k",
	}
}

func (f *FFmpegEncoder) Args(in, out string) []string {
	return []string{"-y", "-i", in, "-acodec", f.Codec, "-b:a", f.Bitrate, out}
}

func (f *FFmpegEncoder) Encode(ctx context.Context, in, out string) error {
	args := f.Args(in, out)
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().Str("binary", f.Binary).Strs("args", args).Msg("running encoder")

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(ErrEncoderUnavailable, "%s: %v", f.Binary, err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return &EncodingFailedError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return errors.Wrap(err, "failed to wait for encoder")
	}
	return nil
}
