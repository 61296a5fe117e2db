// Package speech implements transcription of voice messages with Google
// Cloud Speech-to-Text.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heartmarshall/signalflow-backend/internal/config"
	"github.com/heartmarshall/signalflow-backend/internal/domain"
)

// MaxInlineBytes is the largest local file sent inline to the API.
const MaxInlineBytes = 10 << 20

type recognizeFunc func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error)

// Transcriber turns an audio reference into text. A reference is either a
// gs:// URI or a local file path.
type Transcriber struct {
	recognize recognizeFunc
	close     func() error
	cfg       config.TranscriptionConfig
	log       *slog.Logger

	// initialInterval seeds the retry backoff; tests shrink it.
	initialInterval time.Duration
}

// New creates a Transcriber using application default credentials.
func New(ctx context.Context, cfg config.TranscriptionConfig, log *slog.Logger) (*Transcriber, error) {
	client, err := gspeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	t := newWithFunc(func(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	}, cfg, log)
	t.close = client.Close
	return t, nil
}

func newWithFunc(fn recognizeFunc, cfg config.TranscriptionConfig, log *slog.Logger) *Transcriber {
	return &Transcriber{
		recognize:       fn,
		close:           func() error { return nil },
		cfg:             cfg,
		log:             log.With("adapter", "speech"),
		initialInterval: 750 * time.Millisecond,
	}
}

// Close releases the underlying client.
func (t *Transcriber) Close() error { return t.close() }

// Transcribe returns the best transcript of audioRef. Failures are one of
// the domain transcription errors, wrapped with detail.
func (t *Transcriber) Transcribe(ctx context.Context, audioRef string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	encoding, ok := inferEncoding(audioRef)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAudio, filepath.Ext(audioRef))
	}

	audio, err := loadAudio(audioRef)
	if err != nil {
		return "", err
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			LanguageCode:               t.cfg.LanguageCode,
			Model:                      t.cfg.Model,
			EnableAutomaticPunctuation: true,
		},
		Audio: audio,
	}

	var resp *speechpb.LongRunningRecognizeResponse
	op := func() error {
		r, err := t.recognize(ctx, req)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.initialInterval
	policy.MaxInterval = 10 * time.Second
	retries := uint64(max(t.cfg.MaxAttempts-1, 0))

	notify := func(err error, wait time.Duration) {
		t.log.WarnContext(ctx, "transcription retry",
			slog.String("audio_ref", audioRef),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx), notify); err != nil {
		return "", classify(err)
	}

	return joinTranscript(resp), nil
}

func loadAudio(ref string) (*speechpb.RecognitionAudio, error) {
	if strings.HasPrefix(ref, "gs://") {
		return &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: ref}}, nil
	}

	info, err := os.Stat(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAudioNotFound, ref)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrTranscriptionUnavailable, ref, err)
	}
	if info.Size() > MaxInlineBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrAudioTooLarge, info.Size())
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrTranscriptionUnavailable, ref, err)
	}
	return &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: data}}, nil
}

func inferEncoding(ref string) (speechpb.RecognitionConfig_AudioEncoding, bool) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16, true
	case ".flac":
		return speechpb.RecognitionConfig_FLAC, true
	case ".mp3":
		return speechpb.RecognitionConfig_MP3, true
	case ".ogg", ".opus", ".oga":
		return speechpb.RecognitionConfig_OGG_OPUS, true
	case ".webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, true
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, false
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

func classify(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", domain.ErrAudioNotFound, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %v", domain.ErrUnsupportedAudio, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrTranscriptionUnavailable, err)
}

func joinTranscript(resp *speechpb.LongRunningRecognizeResponse) string {
	if resp == nil {
		return ""
	}
	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if s := strings.TrimSpace(alts[0].GetTranscript()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
