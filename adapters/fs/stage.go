package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	formskema "github.com/reoring/formskema"
)

// Stager moves each processed source file out of the inbox: valid documents
// to the done directory, invalid ones to the error directory. It is a
// batch.Observer.
type Stager struct {
	doneDir string
	errDir  string
	logger  zerolog.Logger
}

// NewStager creates both directories if needed.
func NewStager(doneDir, errDir string, logger zerolog.Logger) (*Stager, error) {
	for _, d := range []string{doneDir, errDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &Stager{doneDir: doneDir, errDir: errDir, logger: logger}, nil
}

// Observe moves out.Origin. Outcomes without an origin are ignored.
func (s *Stager) Observe(out formskema.Outcome) {
	if out.Origin == "" {
		return
	}
	if err := s.Move(out); err != nil {
		s.logger.Error().Err(err).Str("origin", out.Origin).Msg("stage source file")
	}
}

// Move relocates the source file of out and returns the first failure.
func (s *Stager) Move(out formskema.Outcome) error {
	dir := s.doneDir
	if !out.Valid() {
		dir = s.errDir
	}
	dst := filepath.Join(dir, filepath.Base(out.Origin))
	if err := os.Rename(out.Origin, dst); err != nil {
		return fmt.Errorf("move %s: %w", out.Origin, err)
	}
	return nil
}
