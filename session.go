package mastering

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-audio-mastering/internal/mix"
	"github.com/tphakala/go-audio-mastering/internal/wavcodec"
)

// RunState is a snapshot of a session's most recent successful render.
type RunState struct {
	// Generation identifies the buffer the render was made from.
	Generation uint64

	Dry      *Buffer
	Wet      *Buffer
	Settings Settings
	Results  Results
}

// WetPercent is the mix value resolved from the render's settings.
func (r RunState) WetPercent() float64 {
	return r.Settings.DryWet
}

// Session holds one loaded file and its latest render, and answers mix and
// export queries against them.
//
// Every Load starts a new generation. A render started under an older
// generation is discarded when it finishes, so a slow render can never
// overwrite the state of a newer file. Methods are safe for concurrent use.
type Session struct {
	pipe *Pipeline
	log  logrus.FieldLogger

	mu         sync.Mutex
	generation uint64
	dry        *Buffer
	state      *RunState
}

// NewSession creates an empty session.
func NewSession(opts ...Option) *Session {
	p := NewPipeline(opts...)
	return &Session{pipe: p, log: p.cfg.log}
}

// Load replaces the session's buffer and drops any previous render.
// It returns the new generation.
func (s *Session) Load(b *Buffer) (uint64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.dry = b
	s.state = nil
	s.log.WithField("generation", s.generation).Debug("buffer loaded")
	return s.generation, nil
}

// Generation returns the current generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Process renders the loaded buffer with settings. The lock is not held
// during the render. If another Load or Release happened meanwhile, the
// result is dropped and the error matches ErrStaleRender. On any error the
// previous render stays in place.
func (s *Session) Process(ctx context.Context, settings Settings) (Results, error) {
	s.mu.Lock()
	gen, dry := s.generation, s.dry
	s.mu.Unlock()
	if dry == nil {
		return Results{}, fmt.Errorf("%w: load a buffer before processing", ErrInvalidState)
	}

	wet, res, err := s.pipe.Run(ctx, dry, settings)
	if err != nil {
		return Results{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		s.log.WithFields(logrus.Fields{
			"generation": gen,
			"current":    s.generation,
		}).Debug("discarding stale render")
		return Results{}, fmt.Errorf("%w: render of generation %d finished after generation %d was loaded",
			ErrStaleRender, gen, s.generation)
	}
	s.state = &RunState{
		Generation: gen,
		Dry:        dry,
		Wet:        wet,
		Settings:   settings,
		Results:    res,
	}
	return res, nil
}

// State returns the latest render, or false if there is none.
func (s *Session) State() (RunState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return RunState{}, false
	}
	return *s.state, true
}

// Mixed blends the latest render with the dry buffer.
func (s *Session) Mixed(wetPercent float64) (*Buffer, error) {
	st, ok := s.State()
	if !ok {
		return nil, fmt.Errorf("%w: nothing rendered yet", ErrInvalidState)
	}
	return mix.Mix(st.Dry, st.Wet, wetPercent)
}

// Export writes the mix at wetPercent as a 16-bit WAV stream.
func (s *Session) Export(w io.Writer, wetPercent float64) (int64, error) {
	out, err := s.Mixed(wetPercent)
	if err != nil {
		return 0, err
	}
	return wavcodec.WriteTo(w, out)
}

// Release drops the loaded buffer and render and starts a new generation,
// so an in-flight render is discarded.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.dry = nil
	s.state = nil
}
