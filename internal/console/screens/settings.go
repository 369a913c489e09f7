package screens

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"amia-console/internal/console/page"
	"amia-console/internal/console/router"
	"amia-console/internal/datastore"
	"amia-console/internal/domain"
)

// MsgTemplateIncomplete rejects a template without subject or body.
const MsgTemplateIncomplete = "Compila oggetto e corpo"

const excerptLength = 120

var triggerLabels = map[string]string{
	"application_received": "Candidatura ricevuta",
	"interview_invite":     "Invito a colloquio",
	"rejected":             "Scartato",
	"status_interview":     "Promosso a colloquio",
	"status_hired":         "Assunto",
	"status_rejected":      "Scartato",
}

// Placeholder is a substitution tag available in templates.
type Placeholder struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
	Sample      string `json:"sample"`
}

// Placeholders lists the template tags with the sample values used by the
// preview.
var Placeholders = []Placeholder{
	{Tag: "{candidate_name}", Description: "Nome completo del candidato", Sample: "Mario Rossi"},
	{Tag: "{position_title}", Description: "Titolo della posizione", Sample: "UI/UX Designer"},
	{Tag: "{company_name}", Description: "Nome azienda (Amia)", Sample: "Amia"},
	{Tag: "{portal_url}", Description: "Link al portale candidato", Sample: "https://ats.amia.technology"},
}

var sampleValues = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(Placeholders))
	for _, p := range Placeholders {
		pairs = append(pairs, p.Tag, p.Sample)
	}
	return strings.NewReplacer(pairs...)
}()

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Preview fills every placeholder in body with its sample value.
func Preview(body string) string {
	return sampleValues.Replace(body)
}

// Excerpt strips markup from body, collapses whitespace and cuts it to a
// short single line.
func Excerpt(body string) string {
	text := strings.Join(strings.Fields(htmlTag.ReplaceAllString(body, " ")), " ")
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	return string([]rune(text)[:excerptLength])
}

// TemplateRow is a template card.
type TemplateRow struct {
	domain.EmailTemplate
	Label   string `json:"label"`
	Excerpt string `json:"excerpt"`
}

// SettingsData is the Data of the settings view.
type SettingsData struct {
	Templates    []TemplateRow `json:"templates"`
	Placeholders []Placeholder `json:"placeholders"`
}

// TemplateModalData is the Data of the template edit modal.
type TemplateModalData struct {
	Label    string               `json:"label"`
	Template domain.EmailTemplate `json:"template"`
	Preview  string               `json:"preview"`
	Saving   bool                 `json:"saving,omitempty"`
}

// Settings mounts the e-mail template editor.
func (s *Screens) Settings(m *page.Mount, _ router.Params) {
	page.Load(m, "settings", "", func(ctx context.Context) ([]domain.EmailTemplate, error) {
		return s.cfg.Store.Templates.Select(ctx, datastore.Query{}.OrderBy("trigger"))
	}, func(templates []domain.EmailTemplate) {
		sp := &settingsPage{s: s, m: m, templates: templates}
		sp.render()
	})
}

type settingsPage struct {
	s         *Screens
	m         *page.Mount
	templates []domain.EmailTemplate
	guard     page.Guard
}

func (p *settingsPage) render() {
	rows := make([]TemplateRow, 0, len(p.templates))
	for _, t := range p.templates {
		rows = append(rows, TemplateRow{EmailTemplate: t, Label: triggerLabel(t.Trigger), Excerpt: Excerpt(t.BodyHTML)})
	}
	p.m.Region.Render(page.View{Screen: "settings", Data: SettingsData{Templates: rows, Placeholders: Placeholders}}, page.Handlers{
		"edit-template": func(_ context.Context, in page.Input) {
			if i := p.index(in.Target); i >= 0 {
				p.openModal(p.templates[i], false)
			}
		},
	})
}

func (p *settingsPage) openModal(t domain.EmailTemplate, saving bool) {
	p.m.Region.OpenModal(page.View{Screen: "template-modal", Data: TemplateModalData{
		Label:    triggerLabel(t.Trigger),
		Template: t,
		Preview:  Preview(t.BodyHTML),
		Saving:   saving,
	}}, page.Handlers{
		"preview-template": func(_ context.Context, in page.Input) {
			draft := t
			draft.Subject = in.Raw("subject")
			draft.BodyHTML = in.Raw("body_html")
			p.openModal(draft, p.guard.Busy())
		},
		"save-template": func(_ context.Context, in page.Input) {
			p.save(t, in.Get("subject"), in.Get("body_html"))
		},
		"cancel": func(context.Context, page.Input) {
			p.m.Region.CloseModal()
		},
	})
}

// templateInput is the submitted template edit form.
type templateInput struct {
	Subject string `validate:"required"`
	Body    string `validate:"required"`
}

var templateMessages = []fieldMessage{
	{field: "Subject", msg: MsgTemplateIncomplete},
	{field: "Body", msg: MsgTemplateIncomplete},
}

func (p *settingsPage) save(t domain.EmailTemplate, subject, body string) {
	if err := checkForm(templateInput{Subject: subject, Body: body}, templateMessages); err != nil {
		p.m.Notify.Error(domain.Message(err))
		return
	}
	draft := t
	draft.Subject, draft.BodyHTML = subject, body
	started := page.Run(p.m, &p.guard, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.s.cfg.Store.Templates.Update(ctx, t.ID, datastore.Patch{"subject": subject, "body_html": body})
	}, func(_ struct{}, err error) {
		if err != nil {
			p.openModal(draft, false)
			return
		}
		if i := p.index(t.ID); i >= 0 {
			p.templates[i].Subject = subject
			p.templates[i].BodyHTML = body
		}
		p.m.Region.CloseModal()
		p.m.Notify.Success("Template salvato")
		p.render()
	})
	if started {
		p.openModal(draft, true)
	}
}

func (p *settingsPage) index(id string) int {
	for i, t := range p.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func triggerLabel(trigger string) string {
	if l, ok := triggerLabels[trigger]; ok {
		return l
	}
	return trigger
}
