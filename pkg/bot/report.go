package bot

import (
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/voltwrench/faultbot/pkg/schema"
)

// reportField is one step of the linear report wizard. Fields are asked in
// order; a field prefilled at start is skipped.
type reportField struct {
	key    string
	prompt string
}

var reportFields = []reportField{
	{"site", "📝 New service report.\n\nWhich site or station is this about?"},
	{"serial", "Charger serial number?"},
	{"fault", "Describe the observed fault."},
	{"actions", "What actions were taken on site?"},
	{"resolution", "Resolution status? (resolved / workaround / escalated)"},
	{"technician", "Technician name?"},
}

const reportTemplate = `🧾 Service report {{.ID}}
Date: {{.Date}}
Site: {{index .Values "site"}}
Charger serial: {{index .Values "serial"}}
Observed fault: {{index .Values "fault"}}
Actions taken: {{index .Values "actions"}}
Resolution: {{index .Values "resolution"}}
Technician: {{index .Values "technician"}}`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type reportDraft struct {
	ID        string
	StartedAt time.Time
	Values    map[string]string
	next      int
}

// advance moves past every already-filled field and returns the next prompt,
// or "" when the draft is complete.
func (d *reportDraft) advance() string {
	for d.next < len(reportFields) {
		f := reportFields[d.next]
		if _, ok := d.Values[f.key]; !ok {
			return f.prompt
		}
		d.next++
	}
	return ""
}

// ReportWizard runs at most one report draft per chat. All methods are safe
// for concurrent use.
type ReportWizard struct {
	mu     sync.Mutex
	drafts map[int64]*reportDraft
	now    func() time.Time
}

func NewReportWizard() *ReportWizard {
	return &ReportWizard{drafts: make(map[int64]*reportDraft), now: time.Now}
}

// Start opens a fresh draft for the chat, discarding any draft in progress.
// When pack and faultID name a loaded fault the observed-fault field is
// prefilled and that step is skipped. Returns the first prompt to send.
func (w *ReportWizard) Start(chatID int64, pack schema.Manufacturer, f *schema.Fault) string {
	d := &reportDraft{
		ID:        uuid.NewString()[:8],
		StartedAt: w.now(),
		Values:    make(map[string]string),
	}
	if f != nil {
		d.Values["fault"] = DisplayName(pack) + ": " + f.Title + " (" + f.ID + ")"
	}

	w.mu.Lock()
	w.drafts[chatID] = d
	w.mu.Unlock()
	return d.advance()
}

// Active reports whether the chat has a draft awaiting input.
func (w *ReportWizard) Active(chatID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.drafts[chatID]
	return ok
}

// Cancel discards the chat's draft. Reports whether one existed.
func (w *ReportWizard) Cancel(chatID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.drafts[chatID]
	delete(w.drafts, chatID)
	return ok
}

// HandleText feeds one user message into the chat's draft. It returns the
// next prompt, or the finished report with done=true on the last field.
// Blank input re-asks the current field.
func (w *ReportWizard) HandleText(chatID int64, text string) (reply string, done bool) {
	w.mu.Lock()
	d, ok := w.drafts[chatID]
	w.mu.Unlock()
	if !ok {
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return reportFields[d.next].prompt, false
	}
	d.Values[reportFields[d.next].key] = text
	d.next++

	if prompt := d.advance(); prompt != "" {
		return prompt, false
	}

	w.mu.Lock()
	delete(w.drafts, chatID)
	w.mu.Unlock()
	return w.render(d), true
}

func (w *ReportWizard) render(d *reportDraft) string {
	var b strings.Builder
	err := reportTmpl.Execute(&b, struct {
		ID     string
		Date   string
		Values map[string]string
	}{d.ID, d.StartedAt.Format("2006-01-02 15:04"), d.Values})
	if err != nil {
		return "🧾 Service report " + d.ID + " (formatting failed)"
	}
	return b.String()
}
