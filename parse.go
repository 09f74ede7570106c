package auditdom

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const nul = "\x00"

type Option func(*Parser)

func WithFilter(filter bool) Option {
	return func(p *Parser) { p.filter = filter }
}

// WithPolicy replaces Allow as the filtering policy.
func WithPolicy(policy Policy) Option {
	return func(p *Parser) { p.policy = policy }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

func WithMetrics(metrics *Metrics) Option {
	return func(p *Parser) { p.metrics = metrics }
}

// WithMaxBuf caps the tokenizer buffer; 0 means unlimited. Input holding a
// single token larger than the cap stops the parse with a partial tree.
func WithMaxBuf(n int) Option {
	return func(p *Parser) { p.maxBuf = n }
}

type Parser struct {
	filter  bool
	policy  Policy
	maxBuf  int
	logger  *slog.Logger
	metrics *Metrics
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		policy: Allow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds the tree of markup, keeping only audit relevant nodes when
// filter is set.
func Parse(markup string, filter bool) *Node {
	return NewParser(WithFilter(filter)).Parse(markup)
}

func (p *Parser) Parse(markup string) *Node {
	root, err := p.ParseReader(strings.NewReader(markup))
	if err != nil {
		p.logger.Warn("markup parsed partially", "error", err)
	}
	return root
}

// ParseReader consumes r in a single pass. Ill-formed UTF-8 is replaced with
// U+FFFD. When the tokenizer stops early the tree built so far is returned
// along with the error.
func (p *Parser) ParseReader(r io.Reader) (*Node, error) {
	start := time.Now()
	handler := NewHandler(p.filter, p.policy)

	z := html.NewTokenizer(transform.NewReader(r, runes.ReplaceIllFormed()))
	z.SetMaxBuf(p.maxBuf)
	err := feed(z, handler)

	stats := handler.Stats()
	p.metrics.observe(p.filter, stats, time.Since(start), err)
	p.logger.Debug("markup parsed",
		"filter", p.filter,
		"elements", stats.Created[KindElement],
		"texts", stats.Created[KindText],
		"comments", stats.Created[KindComment],
		"denied", stats.Denied[KindElement],
		"duration", time.Since(start),
	)
	return handler.Root(), err
}

func feed(z *html.Tokenizer, handler *Handler) error {
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return errors.Wrap(err, "tokenize markup")
			}
			return nil
		case html.TextToken:
			text(handler, string(z.Text()))
		case html.CommentToken:
			comment := strings.TrimSpace(string(z.Text()))
			if comment == "" {
				continue
			}
			handler.Comment(comment)
		case html.StartTagToken:
			name, attrs := tag(z)
			handler.StartElement(name, attrs, false)
		case html.SelfClosingTagToken:
			name, attrs := tag(z)
			handler.StartElement(name, attrs, true)
		case html.EndTagToken:
			name, _ := z.TagName()
			handler.EndElement(string(name))
		}
	}
}

// text forwards a character run, turning every NUL into its own event.
func text(handler *Handler, raw string) {
	for idx, segment := range strings.Split(raw, nul) {
		if idx > 0 {
			handler.NullCharacter()
		}
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		handler.Text(segment)
	}
}

func tag(z *html.Tokenizer) (string, []Attr) {
	rawName, hasAttr := z.TagName()
	name := string(rawName)
	attrs := make([]Attr, 0)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		attrs = append(attrs, Attr{
			Name:  string(key),
			Value: string(val),
		})
	}
	return name, attrs
}
