package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/detection"
	apperrors "github.com/ironsheep/shelfscan/internal/errors"
	"github.com/ironsheep/shelfscan/internal/geometry"
	"github.com/ironsheep/shelfscan/internal/logger"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// ProviderFactory opens a geometry backend by name.
type ProviderFactory func(name string) (geometry.Provider, error)

// EngineFactory creates an uninitialized recognition engine.
type EngineFactory func(cfg *config.Config) ocr.Engine

// Option customizes a Session.
type Option func(*Session)

// WithProviderFactory replaces geometry.Open.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Session) { s.openProvider = f }
}

// WithEngineFactory replaces the Tesseract engine.
func WithEngineFactory(f EngineFactory) Option {
	return func(s *Session) { s.newEngine = f }
}

// Session carries the readiness state and the last successful result set.
// It is safe for concurrent use; runs are serialized because the
// recognition engine is a single shared instance.
type Session struct {
	cfg          *config.Config
	openProvider ProviderFactory
	newEngine    EngineFactory

	startOnce sync.Once
	started   atomic.Bool
	ready     chan struct{}

	mu       sync.RWMutex
	provider geometry.Provider
	engine   ocr.Engine
	geoState Subsystem
	ocrState Subsystem
	initErr  error
	last     *Result

	runMu sync.Mutex
}

// NewSession creates a session for cfg. Nothing is initialized until Start.
func NewSession(cfg *config.Config, opts ...Option) *Session {
	s := &Session{
		cfg:          cfg,
		openProvider: geometry.Open,
		newEngine: func(cfg *config.Config) ocr.Engine {
			return ocr.NewTesseract(cfg.TessdataPrefix)
		},
		ready:    make(chan struct{}),
		geoState: Subsystem{State: StatePending, Detail: cfg.Backend},
		ocrState: Subsystem{State: StateDisabled},
	}
	if cfg.UseOCR {
		s.ocrState = Subsystem{State: StatePending, Detail: ocr.NormalizeLanguage(cfg.Language)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Start begins initialization in the background. Calls after the first are no-ops.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.initialize()
	})
}

// Await starts initialization if needed and blocks until every enabled
// Subsystem is ready or one has failed. ctx only bounds the wait.
func (s *Session) Await(ctx context.Context) error {
	s.Start()
	select {
	case <-s.ready:
	case <-ctx.Done():
		return apperrors.NewInitializationError("gave up waiting for initialization", ctx.Err())
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initErr
}

func (s *Session) initialize() {
	defer close(s.ready)

	var wg sync.WaitGroup
	var geoErr, ocrErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		geoErr = s.initGeometry()
	}()
	if s.cfg.UseOCR {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ocrErr = s.initOCR()
		}()
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case geoErr != nil:
		s.initErr = geoErr
	case ocrErr != nil:
		s.initErr = ocrErr
	}
}

func (s *Session) initGeometry() error {
	s.setState(&s.geoState, StateInitializing, "")
	p, err := s.openProvider(s.cfg.Backend)
	if err != nil {
		if !apperrors.IsKind(err, apperrors.KindInitialization) {
			err = apperrors.NewInitializationError(fmt.Sprintf("geometry backend %q failed to start", s.cfg.Backend), err)
		}
		s.setState(&s.geoState, StateFailed, err.Error())
		logger.WithError(err).Error("geometry initialization failed")
		return err
	}

	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
	s.setState(&s.geoState, StateReady, "")
	logger.WithField("backend", p.Name()).Info("geometry ready")
	return nil
}

func (s *Session) initOCR() error {
	s.setState(&s.ocrState, StateInitializing, "")
	engine := s.newEngine(s.cfg)
	if err := engine.Initialize(s.cfg.Language); err != nil {
		engine.Close()
		if !apperrors.IsKind(err, apperrors.KindInitialization) {
			err = apperrors.NewInitializationError("recognition engine failed to start", err)
		}
		s.setState(&s.ocrState, StateFailed, err.Error())
		logger.WithError(err).Error("OCR initialization failed")
		return err
	}

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
	s.setState(&s.ocrState, StateReady, "")
	logger.WithField("language", ocr.NormalizeLanguage(s.cfg.Language)).Info("OCR ready")
	return nil
}

func (s *Session) setState(sub *Subsystem, state State, errMsg string) {
	s.mu.Lock()
	sub.State = state
	sub.Error = errMsg
	s.mu.Unlock()
}

// Detector returns a detector over the session's geometry provider, or an
// initialization error when the provider is not ready.
func (s *Session) Detector(opts detection.Options) (*detection.Detector, error) {
	s.mu.RLock()
	p := s.provider
	s.mu.RUnlock()
	if p == nil {
		return nil, apperrors.NewInitializationError("geometry backend is not ready", nil)
	}
	return detection.NewDetector(p, opts), nil
}

// Close waits for a pending initialization and releases the recognition
// engine. The session cannot run afterwards.
func (s *Session) Close() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.started.Load() {
		<-s.ready
	}

	s.mu.Lock()
	engine := s.engine
	s.engine = nil
	s.provider = nil
	if s.initErr == nil {
		s.initErr = apperrors.NewInitializationError("session is closed", nil)
	}
	s.mu.Unlock()

	if engine != nil {
		return engine.Close()
	}
	return nil
}
