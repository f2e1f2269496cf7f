// Package nodeset resolves selectors into node selections and applies
// chainable operations uniformly across them.
//
// Every operation walks the selection from its last node to its first.
// Reads accumulate zero or one Value per node in that order and reverse the
// accumulated values before returning them; writes return the receiver.
package nodeset

import (
	"github.com/jacoelho/chibi/internal/dom"
	"github.com/jacoelho/chibi/internal/form"
	"github.com/jacoelho/chibi/internal/lifecycle"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Engine is the entry point bound to one document.
type Engine struct {
	doc       *dom.Document
	logger    *zap.Logger
	lifecycle *lifecycle.Lifecycle
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycle shares latches with other engines or the caller.
func WithLifecycle(lc *lifecycle.Lifecycle) Option {
	return func(e *Engine) {
		if lc != nil {
			e.lifecycle = lc
		}
	}
}

func New(doc *dom.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:       doc,
		logger:    zap.NewNop(),
		lifecycle: lifecycle.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Document() *dom.Document {
	return e.doc
}

func (e *Engine) Lifecycle() *lifecycle.Lifecycle {
	return e.lifecycle
}

// Query builds a fresh selection. Plain data (form.Data, *form.Data or
// map[string]any) produces a data selection with no nodes that serializes
// the data.
func (e *Engine) Query(selector any) *Selection {
	s := &Selection{engine: e}

	switch sel := selector.(type) {
	case form.Data:
		s.data, s.isData = sel, true
		return s
	case *form.Data:
		if sel != nil {
			s.data, s.isData = *sel, true
		}
		return s
	case map[string]any:
		s.data, s.isData = form.FromMap(sel), true
		return s
	}

	nodes, err := resolve(e.doc, selector)
	if err != nil {
		e.logger.Debug("selector resolved to nothing", zap.Error(err))
	}
	s.nodes = nodes
	return s
}

// Filter narrows a selection.
type Filter string

const (
	First Filter = "first"
	Last  Filter = "last"
	// Odd keeps the 1st, 3rd, 5th... nodes.
	Odd Filter = "odd"
	// Even keeps the 2nd, 4th, 6th... nodes.
	Even Filter = "even"
)

// Selection is one chain's node set. It is never shared between chains.
type Selection struct {
	engine *Engine
	nodes  []*html.Node
	data   form.Data
	isData bool
}

// Nodes returns a copy of the selected nodes.
func (s *Selection) Nodes() []*html.Node {
	return append([]*html.Node(nil), s.nodes...)
}

func (s *Selection) Len() int {
	return len(s.nodes)
}

func (s *Selection) Item(i int) *html.Node {
	if i < 0 || i >= len(s.nodes) {
		return nil
	}
	return s.nodes[i]
}

// Data returns the plain data of a data selection.
func (s *Selection) Data() (form.Data, bool) {
	return s.data, s.isData
}

// Find returns a narrowed copy and whether it holds any node. Unknown
// filters keep every node.
func (s *Selection) Find(filter Filter) (*Selection, bool) {
	out := &Selection{engine: s.engine, data: s.data, isData: s.isData}

	switch filter {
	case First:
		if len(s.nodes) > 0 {
			out.nodes = s.nodes[:1:1]
		}
	case Last:
		if len(s.nodes) > 0 {
			out.nodes = []*html.Node{s.nodes[len(s.nodes)-1]}
		}
	case Odd, Even:
		start := 0
		if filter == Even {
			start = 1
		}
		for i := start; i < len(s.nodes); i += 2 {
			out.nodes = append(out.nodes, s.nodes[i])
		}
	default:
		out.nodes = s.Nodes()
	}

	return out, len(out.nodes) > 0
}

// Ready runs fn once the document is ready.
func (s *Selection) Ready(fn func()) *Selection {
	s.engine.lifecycle.Ready(fn)
	return s
}

// Loaded runs fn once the page is loaded.
func (s *Selection) Loaded(fn func()) *Selection {
	s.engine.lifecycle.Loaded(fn)
	return s
}

func (s *Selection) each(fn func(*html.Node)) {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		fn(s.nodes[i])
	}
}

func (s *Selection) write(fn func(*html.Node)) *Selection {
	s.each(fn)
	return s
}

// read collects the values fn reports; fn returns false to contribute
// nothing for a node.
func (s *Selection) read(fn func(*html.Node) (Value, bool)) Result {
	var walked []Value
	s.each(func(n *html.Node) {
		if v, ok := fn(n); ok {
			walked = append(walked, v)
		}
	})
	return newResult(walked)
}

func (s *Selection) debug(msg string, fields ...zap.Field) {
	s.engine.logger.Debug(msg, fields...)
}
