package draft

import (
	"embed"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/broker-catalog/internal/model"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Sender identifies the buyer the drafts are written for.
type Sender struct {
	Name    string
	Company string
	Title   string
	Phone   string
	Email   string
}

// promptData is what the tone templates render.
type promptData struct {
	BrokerName    string
	BrokerFirm    string
	Geography     string
	IndustryFocus string
	Sender        Sender
}

// Prompts holds the parsed system and user templates per tone.
type Prompts struct {
	byTone map[model.Tone]*template.Template
}

// LoadPrompts parses the embedded tone templates.
func LoadPrompts() (*Prompts, error) {
	p := &Prompts{byTone: make(map[model.Tone]*template.Template, len(model.Tones))}
	for tone := range model.Tones {
		t, err := template.New(string(tone)).ParseFS(promptFS, "prompts/format.tmpl", "prompts/"+string(tone)+".tmpl")
		if err != nil {
			return nil, eris.Wrapf(err, "draft: parse %s prompt", tone)
		}
		p.byTone[tone] = t
	}
	return p, nil
}

// Render returns the system and user prompt for one broker.
func (p *Prompts) Render(tone model.Tone, id model.BrokerIdentity, sender Sender) (system, user string, err error) {
	t, ok := p.byTone[tone]
	if !ok {
		t = p.byTone[model.ToneProfessional]
	}
	data := promptData{
		BrokerName:    orDefault(id.Name, "Unknown"),
		BrokerFirm:    orDefault(id.Firm, "Independent"),
		Geography:     orDefault(id.Geography, "Not specified"),
		IndustryFocus: orDefault(id.IndustryFocus, "Not specified"),
		Sender:        sender,
	}

	var sys, usr strings.Builder
	if err := t.ExecuteTemplate(&sys, "system", data); err != nil {
		return "", "", eris.Wrapf(err, "draft: render %s system prompt", tone)
	}
	if err := t.ExecuteTemplate(&usr, "user", data); err != nil {
		return "", "", eris.Wrapf(err, "draft: render %s user prompt", tone)
	}
	return strings.TrimSpace(sys.String()), strings.TrimSpace(usr.String()), nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// DefaultSubject is used when a reply carries no subject line.
const DefaultSubject = "Exploring Off-Market Business Opportunities"

// ParseDraft splits a model reply into subject and body. The subject is the
// first "Subject:" line; the body is everything after it. A reply without a
// subject gets DefaultSubject, and an empty body falls back to the whole
// reply.
func ParseDraft(text string) (subject, body string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultSubject, ""
	}

	var bodyLines []string
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(line)
		if !found && strings.HasPrefix(strings.ToLower(trimmed), "subject:") {
			subject = strings.TrimSpace(trimmed[len("subject:"):])
			found = true
			continue
		}
		if found {
			bodyLines = append(bodyLines, line)
		}
	}

	body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = text
	}
	return subject, body
}
