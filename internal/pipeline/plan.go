package pipeline

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

const gateVertex = "quality_gate"

// WritePlan renders the execution order as a Graphviz DOT digraph: every
// extract and transform step, the quality gate, then every load step.
func (p *Pipeline[D]) WritePlan(w io.Writer) error {
	pl := p.snapshot()
	g := graph.New(graph.StringHash, graph.Directed())

	prev := ""
	link := func(id string) error {
		if prev != "" {
			if err := g.AddEdge(prev, id); err != nil {
				return errors.Wrapf(err, "unable to add edge from %s to %s", prev, id)
			}
		}
		prev = id
		return nil
	}
	addStep := func(i int, s Step) error {
		id := fmt.Sprintf("%s/%d", s.Phase(), i)
		err := g.AddVertex(id,
			graph.VertexAttribute("label", fmt.Sprintf("%s: %s", s.Phase(), s.Name())),
			graph.VertexAttribute("shape", "box"),
		)
		if err != nil {
			return errors.Wrap(err, "unable to add vertex")
		}
		return link(id)
	}

	for _, group := range [][]step[D]{pl.extract, pl.transform} {
		for i, s := range group {
			if err := addStep(i, s); err != nil {
				return err
			}
		}
	}

	gateLabel := fmt.Sprintf("quality gate (%d checks)", pl.gate.Len())
	for _, c := range pl.gate.Checks() {
		gateLabel += "\\n" + c.Name()
	}
	err := g.AddVertex(gateVertex,
		graph.VertexAttribute("label", gateLabel),
		graph.VertexAttribute("shape", "diamond"),
	)
	if err != nil {
		return errors.Wrap(err, "unable to add gate vertex")
	}
	if err := link(gateVertex); err != nil {
		return err
	}

	for i, s := range pl.load {
		if err := addStep(i, s); err != nil {
			return err
		}
	}

	if err := draw.DOT(g, w, draw.GraphAttribute("label", p.opts.name)); err != nil {
		return errors.Wrap(err, "unable to render plan")
	}
	return nil
}
