// Package conversation holds the ordered list of chat messages and sequences
// completion requests on behalf of a rendering layer.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/simplechat/pkg/completion"
	"github.com/papercomputeco/simplechat/pkg/export"
	"github.com/papercomputeco/simplechat/pkg/llm"
	"github.com/papercomputeco/simplechat/pkg/logger"
	"github.com/papercomputeco/simplechat/pkg/speech"
)

const (
	// ErrorPlaceholder is the assistant entry appended when a completion fails.
	ErrorPlaceholder = "⚠️ No response from AI."

	// DefaultImagePrompt accompanies an image submitted without a caption.
	DefaultImagePrompt = "What's in this image?"
)

// ErrMessageNotFound is returned by Speak for an unknown message ID.
var ErrMessageNotFound = errors.New("message not found")

// Controller owns one conversation. Callers are expected to hold off
// submitting while State().Pending is true; the controller does not enforce
// it, and concurrent submits complete in no particular order.
type Controller struct {
	completer   completion.Completer
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	autoSpeak   bool
	logger      *zap.Logger

	mu        sync.Mutex
	messages  []Message
	inflight  int
	seq       int
	listeners map[int]func(State)
	nextSub   int

	// notifyMu keeps snapshots reaching listeners in the order they were taken.
	notifyMu sync.Mutex

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecognizer enables voice capture.
func WithRecognizer(r speech.Recognizer) Option {
	return func(c *Controller) { c.recognizer = r }
}

// WithSynthesizer enables text-to-speech playback.
func WithSynthesizer(s speech.Synthesizer) Option {
	return func(c *Controller) { c.synthesizer = s }
}

// WithAutoSpeak speaks every successful reply as it arrives. It has no effect
// without a synthesizer.
func WithAutoSpeak() Option {
	return func(c *Controller) { c.autoSpeak = true }
}

// NewController starts an empty conversation.
func NewController(completer completion.Completer, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		completer: completer,
		logger:    logger,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit appends text as a user message and requests a reply in the
// background. Blank text is ignored and Submit reports false.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.begin(newMessage(llm.RoleUser, KindText, text))
	c.complete(ctx, text, nil)
	return true
}

// SubmitImage appends the image as a user message and asks about it with
// prompt, or DefaultImagePrompt when prompt is blank.
func (c *Controller) SubmitImage(ctx context.Context, image llm.Image, prompt string) bool {
	if image.URL == "" {
		return false
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = DefaultImagePrompt
	}

	c.begin(newMessage(llm.RoleUser, KindImage, image.URL))
	c.complete(ctx, prompt, &image)
	return true
}

// begin appends the user message and marks a request as in flight in one
// step, so observers never see the message without Pending.
func (c *Controller) begin(msg Message) {
	c.mu.Lock()
	c.appendLocked(msg)
	c.inflight++
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) complete(ctx context.Context, prompt string, image *llm.Image) {
	// Requests run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer c.wg.Done()

		reply, err := c.completer.Complete(ctx, prompt, image)

		var msg Message
		if err != nil {
			c.logger.Error("completion failed",
				zap.String("prompt_preview", logger.Preview(prompt, 50)),
				zap.Error(err),
			)
			msg = newMessage(llm.RoleAssistant, KindText, ErrorPlaceholder)
		} else {
			msg = newMessage(llm.RoleAssistant, KindText, reply)
		}

		c.mu.Lock()
		c.appendLocked(msg)
		c.inflight--
		c.mu.Unlock()

		c.notify()

		if err == nil && c.autoSpeak && c.synthesizer != nil {
			if err := c.synthesizer.Speak(ctx, reply); err != nil {
				c.logger.Warn("auto speak failed", zap.Error(err))
			}
		}
	}()
}

func (c *Controller) appendLocked(msg Message) {
	c.seq++
	msg.Seq = c.seq
	c.messages = append(c.messages, msg)
}

// State returns a snapshot of the conversation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return State{Messages: msgs, Pending: c.inflight > 0}
}

// Subscribe calls fn with a fresh snapshot after every state change until the
// returned func is called. fn runs on the goroutine that made the change; it
// must not block or call back into the controller.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	state := c.stateLocked()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Wait blocks until no completion is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Reset clears the conversation, as at the start of a session. Replies to
// requests still in flight are appended to the new conversation.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.seq = 0
	c.mu.Unlock()

	c.notify()
}

// Capabilities reports which speech features were configured.
func (c *Controller) Capabilities() speech.Capabilities {
	return speech.Capabilities{
		Recognition: c.recognizer != nil,
		Synthesis:   c.synthesizer != nil,
	}
}

// Speak reads an assistant message aloud. It may be repeated and never
// changes the conversation.
func (c *Controller) Speak(ctx context.Context, id string) error {
	if c.synthesizer == nil {
		return speech.ErrUnavailable
	}

	msg, ok := c.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	if msg.Author != llm.RoleAssistant || msg.Kind != KindText {
		return fmt.Errorf("message %s is not assistant text", id)
	}

	return c.synthesizer.Speak(ctx, msg.Content)
}

// Transcribe captures one utterance and returns it as text for Submit.
func (c *Controller) Transcribe(ctx context.Context, audio speech.Audio) (string, error) {
	if c.recognizer == nil {
		return "", speech.ErrUnavailable
	}
	return c.recognizer.Recognize(ctx, audio)
}

func (c *Controller) find(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Export renders the current conversation as a text document.
func (c *Controller) Export() string {
	return Export(c.State().Messages)
}

// Export renders msgs with the export package.
func Export(msgs []Message) string {
	entries := make([]export.Entry, len(msgs))
	for i, m := range msgs {
		entries[i] = export.Entry{
			Role:    m.Author,
			IsImage: m.Kind == KindImage,
			Content: m.Content,
		}
	}
	return export.Render(entries)
}
