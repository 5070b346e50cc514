package input

import (
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
	go_input "github.com/tcnksm/go-input"
	"gopkg.in/yaml.v3"
)

// Source provides the problem context of a session.
type Source interface {
	ReadProblem() (conversation.Problem, error)
}

// Terminal asks for the problem interactively.
type Terminal struct {
	ui *go_input.UI
}

var _ Source = (*Terminal)(nil)

func NewTerminal(w io.Writer, r io.Reader) *Terminal {
	return &Terminal{
		ui: &go_input.UI{Writer: w, Reader: r},
	}
}

func (t *Terminal) ReadProblem() (conversation.Problem, error) {
	p := conversation.Problem{}

	problem, err := t.ui.Ask("Describe the problem you want to solve", &go_input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
	})
	if err != nil {
		return p, errors.Wrap(err, "could not read problem")
	}
	p.Problem = strings.TrimSpace(problem)

	additional, err := t.ui.Ask("Describe any additional information you want to provide (leave blank if none)", &go_input.Options{
		HideOrder: true,
	})
	if err != nil {
		return p, errors.Wrap(err, "could not read additional information")
	}
	p.Additional = strings.TrimSpace(additional)

	seed, err := t.ui.Ask("Enter any initial proposals you have (leave blank if none)", &go_input.Options{
		HideOrder: true,
	})
	if err != nil {
		return p, errors.Wrap(err, "could not read initial proposal")
	}
	p.Seed = strings.TrimSpace(seed)

	return p, nil
}

// File reads the problem from a YAML document with the keys problem,
// additional and seed.
type File struct {
	Path string
}

var _ Source = (*File)(nil)

func (f *File) ReadProblem() (conversation.Problem, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return conversation.Problem{}, errors.Wrapf(err, "could not open problem file %s", f.Path)
	}
	defer func() {
		_ = r.Close()
	}()
	return LoadProblem(r)
}

func LoadProblem(r io.Reader) (conversation.Problem, error) {
	p := conversation.Problem{}
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return p, errors.Wrap(err, "could not parse problem file")
	}
	p.Problem = strings.TrimSpace(p.Problem)
	p.Additional = strings.TrimSpace(p.Additional)
	p.Seed = strings.TrimSpace(p.Seed)
	if p.Problem == "" {
		return p, errors.New("problem file has no problem")
	}
	return p, nil
}
