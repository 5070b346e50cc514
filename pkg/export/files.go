package export

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	ConversationFile = "conversation.txt"
	SynthesisFile    = "synthesis.txt"
	ReportFile       = "report.html"
)

// Exporter writes the session artifacts into a directory. Each artifact is
// written as soon as it exists so a failing later stage keeps earlier work.
type Exporter struct {
	dir string
}

func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create output directory %s", dir)
	}
	return &Exporter{dir: dir}, nil
}

func (e *Exporter) Path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *Exporter) WriteConversation(p conversation.Problem, t *conversation.Transcript) (string, error) {
	buf := &bytes.Buffer{}
	if err := WriteConversation(buf, p, t); err != nil {
		return "", err
	}
	return e.write(ConversationFile, buf.Bytes())
}

func (e *Exporter) WriteSynthesis(p conversation.Problem, seed string, synthesis string) (string, error) {
	buf := &bytes.Buffer{}
	if err := WriteSynthesis(buf, p, seed, synthesis); err != nil {
		return "", err
	}
	return e.write(SynthesisFile, buf.Bytes())
}

func (e *Exporter) WriteReport(report string) (string, error) {
	return e.write(ReportFile, []byte(report))
}

func (e *Exporter) write(name string, b []byte) (string, error) {
	path := e.Path(name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write %s", path)
	}
	log.Info().Str("path", path).Int("bytes", len(b)).Msg("wrote artifact")
	return path, nil
}
