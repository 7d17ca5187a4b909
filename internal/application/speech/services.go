package speech

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/speech"
)

const defaultContentType = "audio/mp3"

// Options configure the speech use case.
type Options struct {
	Voices  map[speech.Language]speech.Voice
	Timeout time.Duration
}

// Service turns text into a playable data URI.
type Service struct {
	synth  speech.Synthesizer
	cache  speech.AudioCache
	voices map[speech.Language]speech.Voice
	tout   time.Duration
	log    zerolog.Logger
}

// NewService accepts a nil synthesizer (Speak then fails with a configuration
// error) and a nil cache (every call goes to the provider).
func NewService(synth speech.Synthesizer, cache speech.AudioCache, opts Options, log zerolog.Logger) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Service{synth: synth, cache: cache, voices: opts.Voices, tout: opts.Timeout, log: log}
}

// Result is the outcome of Speak.
type Result struct {
	DataURI string
	Voice   speech.Voice
	Cached  bool
}

// Speak synthesises text in the requested language.
func (s *Service) Speak(ctx context.Context, text, language string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Text is required")
	}
	lang, ok := speech.ParseLanguage(language)
	if !ok {
		return nil, apperr.Validation("language must be urdu or english")
	}
	if s.synth == nil {
		return nil, apperr.Configuration("Azure TTS credentials not configured")
	}
	voice, ok := s.voices[lang]
	if !ok || voice.Name == "" {
		return nil, apperr.Configuration("no voice configured for " + string(lang))
	}

	key := CacheKey(voice, text)
	if audio := s.lookup(ctx, key); audio != nil {
		return &Result{DataURI: DataURI(audio), Voice: voice, Cached: true}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.tout)
	defer cancel()
	audio, err := s.synth.Synthesize(cctx, speech.Request{Text: text, Voice: voice})
	if err != nil {
		s.log.Error().Err(err).Str("voice", voice.Name).Msg("speech synthesis failed")
		return nil, err
	}

	s.store(ctx, key, audio)
	return &Result{DataURI: DataURI(audio), Voice: voice}, nil
}

func (s *Service) lookup(ctx context.Context, key string) *speech.Audio {
	if s.cache == nil {
		return nil
	}
	audio, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("audio cache read failed")
		return nil
	}
	return audio
}

func (s *Service) store(ctx context.Context, key string, audio *speech.Audio) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, audio); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("audio cache write failed")
	}
}

// CacheKey is tts/<voice>/<sha256(text)>.mp3.
func CacheKey(v speech.Voice, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "tts/" + v.Name + "/" + hex.EncodeToString(sum[:]) + ".mp3"
}

// DataURI encodes audio as data:<type>;base64,<payload>.
func DataURI(a *speech.Audio) string {
	ct := a.ContentType
	if ct == "" || ct == "audio/mpeg" {
		ct = defaultContentType
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}
