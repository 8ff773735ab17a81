package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"chatledger/pkg/logger"
	"chatledger/pkg/models"
	"chatledger/pkg/telemetry"
)

// Generator is the external reply-generation collaborator. The
// orchestrator treats it as opaque: it may succeed, fail, or hang until
// the context deadline.
type Generator interface {
	GenerateReply(ctx context.Context, text string, history []models.Entry) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, text string, history []models.Entry) (string, error)

func (f GeneratorFunc) GenerateReply(ctx context.Context, text string, history []models.Entry) (string, error) {
	return f(ctx, text, history)
}

// DefaultFailureText is the user-visible placeholder stored when reply
// generation fails or times out.
const DefaultFailureText = "could not get a reply, please try again"

// DefaultHistoryWindow is how many merged-view entries accompany a
// reply request as context.
const DefaultHistoryWindow = 3

const defaultReplyTimeout = 30 * time.Second

// OrchestratorConfig tunes reply acquisition. Zero values pick the
// defaults above.
type OrchestratorConfig struct {
	Timeout       time.Duration
	HistoryWindow int
	FailureText   string
}

// Orchestrator drives the async reply flow for submitted user messages:
// Idle -> AwaitingReply -> {Resolved, Failed}. Failures are swallowed
// and converted into a visible overlay entry; nothing past Submit ever
// surfaces an error for a reply that went wrong.
type Orchestrator struct {
	dir     *Directory
	gen     Generator
	timeout time.Duration
	window  int
	failure string

	mu       sync.Mutex
	awaiting map[string]map[string]struct{}
	wg       sync.WaitGroup
}

func NewOrchestrator(dir *Directory, gen Generator, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultReplyTimeout
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.FailureText == "" {
		cfg.FailureText = DefaultFailureText
	}
	return &Orchestrator{
		dir:      dir,
		gen:      gen,
		timeout:  cfg.Timeout,
		window:   cfg.HistoryWindow,
		failure:  cfg.FailureText,
		awaiting: make(map[string]map[string]struct{}),
	}
}

// Submit appends the user message and starts reply acquisition. The
// returned message is already durable when Submit returns; the reply
// lands in the overlay later. Submitting to a missing chat returns the
// store's not-found error.
func (o *Orchestrator) Submit(ctx context.Context, chatID, text string) (models.Message, error) {
	m, err := o.dir.AppendUserMessage(chatID, text)
	if err != nil {
		return models.Message{}, err
	}
	telemetry.MessagesAppended.Inc()

	// history context: last N merged entries including the new message
	history, herr := o.dir.View(chatID)
	if herr != nil {
		history = nil
	}
	if len(history) > o.window {
		history = history[len(history)-o.window:]
	}

	o.mark(chatID, m.ID)
	o.wg.Add(1)
	go o.acquire(chatID, m, history)
	return m, nil
}

func (o *Orchestrator) acquire(chatID string, m models.Message, history []models.Entry) {
	defer o.wg.Done()
	defer o.unmark(chatID, m.ID)

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.gen.GenerateReply(ctx, m.Text, history)
	telemetry.ReplyLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn("reply_generation_failed", "chat", chatID, "msg", m.ID, "error", err)
		telemetry.RepliesFailed.Inc()
		text = o.failure
	} else {
		telemetry.RepliesResolved.Inc()
	}

	// guarded by chat existence: a chat deleted mid-flight drops the
	// reply instead of resurrecting anything
	if _, ok := o.dir.SetReply(chatID, m.ID, text); ok && err == nil {
		logger.Debug("reply_resolved", "chat", chatID, "msg", m.ID)
	}
}

func (o *Orchestrator) mark(chatID, msgID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	set, ok := o.awaiting[chatID]
	if !ok {
		set = make(map[string]struct{})
		o.awaiting[chatID] = set
	}
	set[msgID] = struct{}{}
}

func (o *Orchestrator) unmark(chatID, msgID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	set := o.awaiting[chatID]
	delete(set, msgID)
	if len(set) == 0 {
		delete(o.awaiting, chatID)
	}
}

// Awaiting lists message ids with a reply request still in flight for
// the chat. This is the caller-visible pending flag: a pending request
// is distinguishable from a completed one without any placeholder
// overlay entry.
func (o *Orchestrator) Awaiting(chatID string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	set := o.awaiting[chatID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Drain blocks until all in-flight reply requests complete. Used on
// shutdown and in tests.
func (o *Orchestrator) Drain() { o.wg.Wait() }
