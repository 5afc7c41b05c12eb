// Package console runs a dialogue App as a local terminal chat, so operators
// can walk through a script without a transport.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mitchellh/mapstructure"
	"github.com/muesli/termenv"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"
	"golang.org/x/term"
)

// Commands understood at the prompt.
const (
	CmdQuit    = "/quit"
	CmdClose   = "/close"
	CmdRestart = "/restart"
)

// DefaultAddr is the address the console user chats from.
const DefaultAddr = "27820001001"

// Chat is a terminal transport for one user.
type Chat struct {
	app       *dialogue.App
	in        io.Reader
	out       io.Writer
	addr      string
	appAddr   string
	transport domain.TransportType
	markdown  bool
	render    func(string) (string, error)
	color     *termenv.Output
	logger    *slog.Logger
}

// Option configures a Chat.
type Option func(*Chat)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Chat) {
		c.in = in
		c.out = out
	}
}

// WithAddr sets the user address.
func WithAddr(addr string) Option {
	return func(c *Chat) {
		c.addr = addr
	}
}

// WithUSSD makes the chat behave like a USSD session.
func WithUSSD() Option {
	return func(c *Chat) {
		c.transport = domain.TransportUSSD
	}
}

// WithMarkdown toggles glamour rendering of replies. It is only applied on a terminal.
func WithMarkdown(enabled bool) Option {
	return func(c *Chat) {
		c.markdown = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chat) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Chat over stdin/stdout.
func New(app *dialogue.App, opts ...Option) *Chat {
	c := &Chat{
		app:       app,
		in:        os.Stdin,
		out:       os.Stdout,
		addr:      DefaultAddr,
		appAddr:   "vaxbot",
		transport: domain.TransportHTTPAPI,
		markdown:  true,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.color = termenv.NewOutput(c.out)
	if c.markdown && isTerminal(c.out) {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(72)); err == nil {
			c.render = r.Render
		}
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run starts a session and relays lines until the input ends, /quit is typed
// or ctx is cancelled.
func (c *Chat) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := pump(c.in, done)

	if c.render != nil {
		printBanner(c.color, c.app.Script().Name)
	}
	if err := c.send(ctx, nil, domain.SessionNew); err != nil {
		return err
	}
	for {
		c.prompt()
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				return nil
			}
			line = strings.TrimRight(l, "\r\n")
		}

		var err error
		switch strings.TrimSpace(line) {
		case CmdQuit:
			return nil
		case CmdClose:
			err = c.send(ctx, nil, domain.SessionClose)
		case CmdRestart:
			err = c.send(ctx, nil, domain.SessionNew)
		default:
			content, serr := match.Sanitize(line, 0)
			if serr != nil {
				fmt.Fprintln(c.out, c.color.String("input rejected: "+serr.Error()).Faint())
				continue
			}
			err = c.send(ctx, &content, domain.SessionResume)
		}
		if err != nil {
			return err
		}
	}
}

// pump reads lines in the background so Run can watch ctx while waiting.
func pump(r io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}

func (c *Chat) send(ctx context.Context, content *string, event domain.SessionEvent) error {
	msg := domain.NewInbound(c.addr, c.appAddr, "console", c.transport, content, event)
	out, err := c.app.Handle(ctx, msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "turn failed", "addr", c.addr, "err", err)
		return fmt.Errorf("turn failed: %w", err)
	}
	for _, m := range out {
		c.print(m)
	}
	return nil
}

func (c *Chat) prompt() {
	fmt.Fprint(c.out, c.color.String("> ").Foreground(c.color.Color("#818cf8")).Bold())
}

func (c *Chat) print(m domain.Message) {
	text := m.Text()
	if c.render != nil {
		if rendered, err := c.render(text); err == nil {
			text = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintln(c.out, text)

	if extra := helperText(m.HelperMetadata); extra != "" {
		fmt.Fprintln(c.out, c.color.String(extra).Faint())
	}
	if m.SessionEvent == domain.SessionClose {
		fmt.Fprintln(c.out, c.color.String("-- session closed --").Faint())
	}
}

type section struct {
	Title string `mapstructure:"title"`
	Rows  []struct {
		ID    string `mapstructure:"id"`
		Title string `mapstructure:"title"`
	} `mapstructure:"rows"`
}

// helperText renders buttons and list rows the way a phone would show them.
func helperText(helper map[string]any) string {
	if len(helper) == 0 {
		return ""
	}
	var b strings.Builder
	var buttons []string
	if err := mapstructure.Decode(helper[domain.HelperButtons], &buttons); err == nil && len(buttons) > 0 {
		for _, label := range buttons {
			fmt.Fprintf(&b, "[%s] ", label)
		}
	}
	var sections []section
	if err := mapstructure.Decode(helper[domain.HelperSections], &sections); err == nil && len(sections) > 0 {
		button, _ := helper[domain.HelperButton].(string)
		fmt.Fprintf(&b, "(%s)", button)
		for _, s := range sections {
			if s.Title != "" {
				fmt.Fprintf(&b, "\n  %s", s.Title)
			}
			for _, row := range s.Rows {
				fmt.Fprintf(&b, "\n  - %s", row.Title)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
