package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	apierrors "github.com/diogo/supportchat/internal/errors"
	"github.com/diogo/supportchat/internal/models"
)

// Completer sends one conversation to the completion endpoint and returns
// the reply text.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// HistoryMode selects how the outbound history is assembled
type HistoryMode string

const (
	// HistoryLive sends the conversation as it stands after the user turn
	// was appended.
	HistoryLive HistoryMode = "live"
	// HistorySnapshot sends the conversation captured before the append,
	// followed by the user turn built explicitly.
	HistorySnapshot HistoryMode = "snapshot"
)

// ParseHistoryMode converts a config value into a HistoryMode
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch HistoryMode(s) {
	case "", HistoryLive:
		return HistoryLive, nil
	case HistorySnapshot:
		return HistorySnapshot, nil
	}
	return "", fmt.Errorf("unknown history mode %q (want %q or %q)", s, HistoryLive, HistorySnapshot)
}

// Turn is one accepted send, from the loading gate to settlement
type Turn struct {
	ID          uint64
	User        models.Message
	Instruction string
	StartedAt   time.Time

	payload []models.Message
	settle  sync.Once
}

// Payload returns the messages sent to the endpoint for this turn
func (t *Turn) Payload() []models.Message {
	out := make([]models.Message, len(t.payload))
	copy(out, t.payload)
	return out
}

// Outcome describes how a turn settled
type Outcome struct {
	Reply  models.Message
	Failed bool
	Err    error
}

// Pipeline runs sends against a Store
type Pipeline struct {
	store     *Store
	completer Completer
	logger    *zap.Logger
	fallback  string
	mode      HistoryMode
	sessionID string

	turns atomic.Uint64
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFallbackReply overrides the text appended when a request fails
func WithFallbackReply(text string) PipelineOption {
	return func(p *Pipeline) {
		p.fallback = text
	}
}

// WithHistoryMode selects how the outbound history is assembled
func WithHistoryMode(mode HistoryMode) PipelineOption {
	return func(p *Pipeline) {
		p.mode = mode
	}
}

// WithSessionID tags log entries with the widget session
func WithSessionID(id string) PipelineOption {
	return func(p *Pipeline) {
		p.sessionID = id
	}
}

// NewPipeline creates a pipeline bound to store and completer
func NewPipeline(store *Store, completer Completer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:     store,
		completer: completer,
		logger:    zap.NewNop(),
		fallback:  models.FallbackReply,
		mode:      HistoryLive,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("session", p.sessionID))
	return p
}

// Store returns the store the pipeline mutates
func (p *Pipeline) Store() *Store {
	return p.store
}

// Send runs a whole turn: gate, request, settle. It returns ok=false and
// does nothing when the draft is blank or another turn is in flight.
func (p *Pipeline) Send(ctx context.Context, draft string) (Outcome, bool) {
	turn, ok := p.Begin(draft)
	if !ok {
		return Outcome{}, false
	}
	reply, err := p.Execute(ctx, turn)
	return p.Finish(turn, reply, err), true
}

// Begin passes the loading gate and records the user turn. The returned
// Turn carries the payload to send.
func (p *Pipeline) Begin(draft string) (*Turn, bool) {
	before, after, instruction, ok := p.store.beginSend(draft)
	if !ok {
		p.logger.Debug("send dropped",
			zap.Bool("loading", p.store.Loading()),
			zap.Int("draft_len", len(draft)))
		return nil, false
	}

	turn := &Turn{
		ID:          p.turns.Add(1),
		User:        models.NewUserMessage(draft),
		Instruction: instruction,
		StartedAt:   time.Now(),
	}
	turn.payload = p.buildPayload(instruction, before, after, turn.User)

	p.logger.Debug("turn started",
		zap.Uint64("turn", turn.ID),
		zap.Int("payload_messages", len(turn.payload)),
		zap.String("history_mode", string(p.mode)))

	return turn, true
}

func (p *Pipeline) buildPayload(instruction string, before, after []models.Message, user models.Message) []models.Message {
	var history []models.Message
	switch p.mode {
	case HistorySnapshot:
		history = append(before, user)
	default:
		history = after
	}

	payload := make([]models.Message, 0, len(history)+1)
	payload = append(payload, models.NewSystemMessage(instruction))
	payload = append(payload, history...)
	return payload
}

// Execute issues the single request for turn. A panic in the completer is
// reported as an error so the turn can still settle.
func (p *Pipeline) Execute(ctx context.Context, turn *Turn) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completer panicked: %v", r)
		}
	}()
	return p.completer.Complete(ctx, turn.Payload())
}

// Finish settles turn: it appends the reply, or the fallback text when the
// request failed or returned nothing, and clears the loading flag.
// Only the first call for a given turn has any effect.
func (p *Pipeline) Finish(turn *Turn, reply string, err error) Outcome {
	var out Outcome
	turn.settle.Do(func() {
		if err == nil && reply == "" {
			err = apierrors.NewParseError(apierrors.ErrNoContent.Error(), models.PathReplyText)
		}

		if err != nil {
			out = Outcome{
				Reply:  models.NewAssistantMessage(p.fallback),
				Failed: true,
				Err:    err,
			}
			p.logger.Error("chat request failed",
				zap.Uint64("turn", turn.ID),
				zap.String("kind", apierrors.Kind(err)),
				zap.Int("status", apierrors.GetHTTPStatus(err)),
				zap.Duration("elapsed", time.Since(turn.StartedAt)),
				zap.Error(err))
		} else {
			out = Outcome{Reply: models.NewAssistantMessage(reply)}
			p.logger.Debug("turn settled",
				zap.Uint64("turn", turn.ID),
				zap.Int("reply_len", len(reply)),
				zap.Duration("elapsed", time.Since(turn.StartedAt)))
		}

		p.store.endSend(out.Reply)
	})
	return out
}
