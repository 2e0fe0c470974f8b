// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/model"
	"github.com/jeranaias/orion-chat/internal/orion"
	"github.com/jeranaias/orion-chat/internal/render"
	"github.com/jeranaias/orion-chat/internal/ui/styles"
)

// Options configures a chat Model.
type Options struct {
	// Config supplies the UI and endpoint settings. Nil uses the defaults.
	Config *config.Config

	// Client overrides the client built from Config.
	Client *orion.Client

	// Context bounds every exchange. Nil uses context.Background.
	Context context.Context

	// Greeting is the bot's first message. Empty uses model.Greeting.
	Greeting string

	// Logger defaults to the "tui" component logger.
	Logger *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	cfg      *config.Config
	theme    *styles.Theme
	renderer *render.Renderer
	keys     KeyMap
	logger   *slog.Logger

	// Conversation and the exchange in progress
	conv      *model.Conversation
	send      sendFunc
	endpoint  string
	errorText string
	baseCtx   context.Context
	active    *session

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// PERFORMANCE: streaming re-renders are capped at ui.render_fps
	limiter       *rate.Limiter
	dirty         bool
	tickScheduled bool
	rendered      map[string]string // glamour output of final replies by message ID

	// Layout
	width  int
	height int
	ready  bool
	follow bool // keep the viewport pinned to the newest output

	status    string
	statusErr bool
}

// New creates the chat model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("tui")
	}
	client := opts.Client
	if client == nil {
		client = orion.NewFromConfig(cfg)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	greeting := opts.Greeting
	if greeting == "" {
		greeting = model.Greeting
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask Orion anything..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	// ASCII-compatible animation
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	sp.Style = theme.Spinner

	return Model{
		cfg:       cfg,
		theme:     theme,
		renderer:  newRenderer(cfg.UI.Theme, render.DefaultWidth),
		keys:      DefaultKeyMap(),
		logger:    logger,
		conv:      model.NewConversation(model.WithGreeting(greeting)),
		send:      clientSender(client),
		endpoint:  client.Endpoint(),
		errorText: client.ErrorText(),
		baseCtx:   ctx,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		limiter:   rate.NewLimiter(fpsLimit(cfg.UI.RenderFPS), 1),
		rendered:  make(map[string]string),
		follow:    true,
	}
}

func newRenderer(theme string, width int) *render.Renderer {
	r, err := render.New(render.ResolveStyle(theme), width)
	if err != nil {
		logging.WithComponent("tui").Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func fpsLimit(fps int) rate.Limit {
	if fps <= 0 {
		fps = 30
	}
	return rate.Limit(fps)
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Conversation returns the chat history.
func (m Model) Conversation() *model.Conversation {
	return m.conv
}

// Streaming reports whether a reply is in progress.
func (m Model) Streaming() bool {
	return m.active != nil
}

// Typing reports whether the typing indicator is showing: a message was
// sent and no chunk of the reply has arrived yet.
func (m Model) Typing() bool {
	return m.active != nil && m.active.typing()
}

// Status returns the status bar message, if any.
func (m Model) Status() string {
	return m.status
}

// endpointHost returns the host shown in the header.
func (m Model) endpointHost() string {
	u, err := url.Parse(m.endpoint)
	if err != nil || u.Host == "" {
		return m.endpoint
	}
	return u.Host
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}
