package nodeset

import (
	"context"

	"github.com/jacoelho/chibi/internal/control"
	"github.com/jacoelho/chibi/internal/dom"
	"github.com/jacoelho/chibi/internal/form"
	"github.com/jacoelho/chibi/internal/transport"
	"golang.org/x/net/html"
)

// Serialize encodes the selection as a urlencoded payload: the plain data of
// a data selection, or the controls of every selected form.
func (s *Selection) Serialize() string {
	if s.isData {
		return form.SerializeData(s.data)
	}

	var root *html.Node
	if s.engine.doc != nil {
		root = s.engine.doc.Root
	}
	return form.SerializeForms(root, s.nodes)
}

// Ajax sends the serialized selection with client. The request payload is
// computed now; h receives the response later, on the client's dispatcher
// when one is set.
func (s *Selection) Ajax(ctx context.Context, client *transport.Client, req transport.Request, h transport.Handler) *transport.Call {
	req.Query = s.Serialize()
	req.Redact = append(req.Redact, s.passwords()...)
	return client.Do(ctx, req, h)
}

// passwords returns the raw and encoded values of selected password inputs.
func (s *Selection) passwords() []string {
	var out []string
	for _, n := range s.nodes {
		dom.Walk(n, func(c *html.Node) bool {
			if control.Classify(c) == control.Text && control.InputType(c) == "password" {
				if v := control.Value(c); v != "" {
					out = append(out, v, form.Escape(v))
				}
			}
			return true
		})
	}
	return out
}
