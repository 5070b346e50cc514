package brainstorm

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/brainstorm/pkg/conversation"
	"github.com/pkg/errors"
)

const brainstormTemplate = `You are a superhuman AI problem solver working with another superhuman AI agent to solve the following problem:

Problem: {{ .Problem }}{{ if .HasAdditional }}
Additional Information: {{ .Additional }}{{ end }}

Your task is to critically analyze and critique the solution put forth by your partner agent. You should identify the flaws in your partner's plan and suggest rigorous improvements to their ideas.

Engage in a productive conversation and brainstorm a solution together. Do not agree with everything your partner says; challenge your partner's ideas aggressively and rigorously critique the proposed ideas. Build on your partner's ideas if they are sound and propose new ideas.

Do not reiterate what your partner has said already. Only propose new ideas and critique your partner.

Your ultimate goal is to work together to develop a completely sound and full-proof proposal to solve the problem.`

const seedTemplate = `{{ if .HasAdditional -}}
Given the following problem and additional information, propose a solution.

Problem: {{ .Problem }}

Additional Information: {{ .Additional }}
{{- else -}}
Given the following problem, propose a solution.

Problem: {{ .Problem }}
{{- end }}

Proposed solution:`

const synthesisTemplate = `Problem: {{ .Problem.Problem }}{{ if .Problem.HasAdditional }}
Additional Information: {{ .Problem.Additional }}{{ end }}

The following is a conversation between two superhuman AI agents trying to solve the above problem:

### CONVERSATION START ###
{{ .Conversation }}
### CONVERSATION END ###

Synthesize the above conversation into an extremely detailed, coherent, complete proposal to solve the problem.`

const reportTemplate = `###START REPORT
{{ .Synthesis }}
###END REPORT

Reformat the above write-up via HTML into a professional-looking report. Use Times New Roman
<!DOCTYPE html>`

const convergenceTemplate = `The following message was written by one of two AI agents brainstorming a solution to a problem:

### MESSAGE START ###
{{ .Message | trim }}
### MESSAGE END ###

Is this message a concluding remark that ends the conversation, rather than a new idea or critique? Answer with a single word, yes or no.`

var (
	brainstormTpl  = mustParse("brainstorm", brainstormTemplate)
	seedTpl        = mustParse("seed", seedTemplate)
	synthesisTpl   = mustParse("synthesis", synthesisTemplate)
	reportTpl      = mustParse("report", reportTemplate)
	convergenceTpl = mustParse("convergence", convergenceTemplate)
)

func mustParse(name string, s string) *template.Template {
	return template.Must(template.New(name).Funcs(sprig.TxtFuncMap()).Parse(s))
}

func render(tpl *template.Template, data interface{}) (string, error) {
	buf := &bytes.Buffer{}
	if err := tpl.Execute(buf, data); err != nil {
		return "", errors.Wrapf(err, "could not render %s prompt", tpl.Name())
	}
	return buf.String(), nil
}

// BrainstormPrompt is the system instruction shared by both agents.
func BrainstormPrompt(p conversation.Problem) (string, error) {
	s, err := render(brainstormTpl, p)
	return strings.TrimSpace(s), err
}

// SeedPrompt asks for an initial proposal when the user supplied none.
func SeedPrompt(p conversation.Problem) (string, error) {
	return render(seedTpl, p)
}

func SynthesisPrompt(p conversation.Problem, flattened string) (string, error) {
	s, err := render(synthesisTpl, struct {
		Problem      conversation.Problem
		Conversation string
	}{p, flattened})
	return strings.TrimSpace(s), err
}

func ReportPrompt(synthesis string) (string, error) {
	return render(reportTpl, struct{ Synthesis string }{synthesis})
}

func ConvergencePrompt(message string) (string, error) {
	return render(convergenceTpl, struct{ Message string }{message})
}
