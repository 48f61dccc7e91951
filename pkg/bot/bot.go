package bot

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/engine"
	"github.com/voltwrench/faultbot/pkg/metrics"
	"github.com/voltwrench/faultbot/pkg/schema"
)

// dedupWindow swallows double taps: a second press of the same button data in
// the same chat within this window is acknowledged but not re-dispatched.
const dedupWindow = 600 * time.Millisecond

// Config wires a Bot.
type Config struct {
	Transport Transport
	Engine    *engine.Engine
	Source    engine.FaultSource
	Wizard    *ReportWizard
	Metrics   *metrics.Recorder
	Log       *zap.Logger
}

// Bot dispatches transport events into the engine and renders the resulting
// views back out. It implements Handler.
type Bot struct {
	tr     Transport
	eng    *engine.Engine
	source engine.FaultSource
	wizard *ReportWizard
	rec    *metrics.Recorder
	log    *zap.Logger

	mu       sync.Mutex
	lastData map[int64]lastPress
	now      func() time.Time
}

type lastPress struct {
	data string
	at   time.Time
}

func New(cfg Config) *Bot {
	if cfg.Wizard == nil {
		cfg.Wizard = NewReportWizard()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Bot{
		tr:       cfg.Transport,
		eng:      cfg.Engine,
		source:   cfg.Source,
		wizard:   cfg.Wizard,
		rec:      cfg.Metrics,
		log:      cfg.Log,
		lastData: make(map[int64]lastPress),
		now:      time.Now,
	}
}

// HandleCallback classifies a button press and routes it through the engine.
func (b *Bot) HandleCallback(chatID int64, messageID int, callbackID, data string) {
	defer b.ack(callbackID)

	if b.duplicate(chatID, data) {
		return
	}

	action := engine.ParseCallback(data)
	b.rec.Callback(action.Kind.String())

	var v engine.View
	switch action.Kind {
	case engine.ActionHome:
		v = b.eng.ShowRootMenu(chatID)
	case engine.ActionPackMenu:
		v = b.eng.ShowPackMenu(chatID, action.Pack)
	case engine.ActionPackAll:
		v = b.eng.ShowPackAll(chatID, action.Pack)
	case engine.ActionOpenFault:
		v = b.eng.OpenFault(chatID, messageID, action.Pack, action.FaultID)
	case engine.ActionTreeStart:
		v = b.eng.StartTree(chatID, messageID)
	case engine.ActionTreeOption:
		v = b.eng.Advance(chatID, messageID, action.Option)
	case engine.ActionTreeBack:
		v = b.eng.GoBack(chatID, messageID)
	case engine.ActionTreeMenu:
		v = b.eng.GoToPackMenu(chatID, messageID)
	case engine.ActionReport:
		b.startReport(chatID, action.Pack, action.FaultID)
		return
	default:
		b.log.Warn("unknown callback data", zap.String("data", data))
		v = engine.View{
			Kind:    engine.ViewError,
			Text:    "⚠ This button is no longer valid.",
			Buttons: [][]engine.Button{{{Label: "🏠 Main menu", Data: engine.CallbackHome()}}},
		}
	}

	b.render(chatID, messageID, v)
}

// HandleMessage routes commands and wizard input. Anything else gets the root
// menu as a nudge.
func (b *Bot) HandleMessage(chatID int64, text string) {
	switch text {
	case "/start":
		b.wizard.Cancel(chatID)
		b.sendFresh(chatID, b.eng.ShowRootMenu(chatID))
		return
	case "/report":
		b.startReport(chatID, "", "")
		return
	case "/cancel":
		if b.wizard.Cancel(chatID) {
			b.sendFresh(chatID, textView("Report discarded."))
		} else {
			b.sendFresh(chatID, textView("Nothing to cancel."))
		}
		return
	}

	if b.wizard.Active(chatID) {
		reply, done := b.wizard.HandleText(chatID, text)
		v := textView(reply)
		if done {
			v.Buttons = [][]engine.Button{{{Label: "🏠 Main menu", Data: engine.CallbackHome()}}}
		}
		b.sendFresh(chatID, v)
		return
	}

	b.sendFresh(chatID, b.eng.ShowRootMenu(chatID))
}

// startReport opens the wizard, prefilled from the fault when one is named.
// The chat-level session is reset so stray tree buttons fall back to their
// message-bound state instead of a half-abandoned cursor.
func (b *Bot) startReport(chatID int64, pack schema.Manufacturer, faultID string) {
	var fault *schema.Fault
	if pack != "" && faultID != "" {
		if f, ok := b.source.FaultByID(pack, faultID); ok {
			fault = f
		}
	}
	b.eng.ResetSession(chatID)
	prompt := b.wizard.Start(chatID, pack, fault)
	b.sendFresh(chatID, textView(prompt+"\n\nSend /cancel to abort."))
}

// render shows a view on the originating message, editing in place where the
// transport allows it. A fallback fresh send rebinds the message-bound state
// to the new message id.
func (b *Bot) render(chatID int64, messageID int, v engine.View) {
	if v.Kind == engine.ViewNone {
		return
	}
	newID, err := b.tr.Edit(chatID, messageID, v)
	if err != nil {
		b.log.Warn("render failed", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	if newID != messageID {
		b.eng.BindMessage(chatID, newID)
	}
}

func (b *Bot) sendFresh(chatID int64, v engine.View) {
	id, err := b.tr.Send(chatID, v)
	if err != nil {
		b.log.Warn("send failed", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	b.eng.BindMessage(chatID, id)
}

func (b *Bot) ack(callbackID string) {
	if callbackID == "" {
		return
	}
	if err := b.tr.AnswerCallback(callbackID); err != nil {
		b.log.Debug("callback ack failed", zap.Error(err))
	}
}

// duplicate records the press and reports whether it repeats the previous one
// within the dedup window.
func (b *Bot) duplicate(chatID int64, data string) bool {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	prev, ok := b.lastData[chatID]
	b.lastData[chatID] = lastPress{data: data, at: now}
	return ok && prev.data == data && now.Sub(prev.at) < dedupWindow
}

func textView(text string) engine.View {
	return engine.View{Kind: engine.ViewText, Text: text}
}
