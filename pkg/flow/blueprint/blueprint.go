// Package blueprint describes dataflow graphs in YAML.
//
//	name: squares
//	nodes:
//	  - name: xs
//	    kind: source
//	    values: [1, 2, 3]
//	  - name: sq
//	    kind: zip
//	    task: square
//	    inputs: [xs]
//	  - name: total
//	    kind: summarize
//	    task: sum
//	    inputs: [sq]
//	output: total
//
// Nodes may be declared in any order; inputs are resolved by name. For
// summarize and fullstream the first input is the stream and the rest are
// size-1 constants. A computed node calls its task once with args and
// uses the returned list as its values.
package blueprint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/graph"
)

var (
	ErrEmptyName     = errors.New("blueprint: node has empty name")
	ErrDuplicateNode = errors.New("blueprint: duplicate node name")
	ErrUnknownNode   = errors.New("blueprint: unknown node")
	ErrUnknownKind   = errors.New("blueprint: unknown node kind")
	ErrMissingTask   = errors.New("blueprint: node needs a task")
	ErrNoOutput      = errors.New("blueprint: no output node")
	ErrCycle         = errors.New("blueprint: cycle detected")
)

const (
	KindSource     = "source"
	KindComputed   = "computed"
	KindZip        = "zip"
	KindJoin       = "join"
	KindSummarize  = "summarize"
	KindFullStream = "fullstream"
)

type Blueprint struct {
	Name   string     `yaml:"name"`
	Nodes  []NodeSpec `yaml:"nodes"`
	Output string     `yaml:"output"`
}

type NodeSpec struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Task   string   `yaml:"task,omitempty"`
	Inputs []string `yaml:"inputs,omitempty"`
	Values []any    `yaml:"values,omitempty"`
	Args   []any    `yaml:"args,omitempty"`
	Local  bool     `yaml:"local,omitempty"`
}

// TaskLookup resolves task kinds. *engine.Registry implements it.
type TaskLookup interface {
	Lookup(kind string) (flow.TaskFunc, bool)
}

func Parse(data []byte) (*Blueprint, error) {
	var b Blueprint
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("blueprint: parse: %w", err)
	}
	return &b, nil
}

func Load(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blueprint: read %s: %w", path, err)
	}
	return Parse(data)
}

// Order validates the blueprint and returns node names so that every node
// comes after its inputs. Ties keep declaration order.
func (b *Blueprint) Order() ([]string, error) {
	index := make(map[string]int, len(b.Nodes))
	for i, n := range b.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyName, i)
		}
		if _, ok := index[n.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
		}
		if err := n.check(); err != nil {
			return nil, err
		}
		index[n.Name] = i
	}
	if b.Output == "" {
		return nil, ErrNoOutput
	}
	if _, ok := index[b.Output]; !ok {
		return nil, fmt.Errorf("%w: output %q", ErrUnknownNode, b.Output)
	}

	indegree := make([]int, len(b.Nodes))
	dependents := make([][]int, len(b.Nodes))
	for i, n := range b.Nodes {
		for _, in := range n.Inputs {
			j, ok := index[in]
			if !ok {
				return nil, fmt.Errorf("%w: %q (input of %q)", ErrUnknownNode, in, n.Name)
			}
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	queue := make([]int, 0, len(b.Nodes))
	for i := range b.Nodes {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]string, 0, len(b.Nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, b.Nodes[i].Name)
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) != len(b.Nodes) {
		var stuck []string
		for i, n := range b.Nodes {
			if indegree[i] > 0 {
				stuck = append(stuck, n.Name)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

func (n NodeSpec) check() error {
	switch n.Kind {
	case KindSource:
		if len(n.Inputs) > 0 {
			return fmt.Errorf("blueprint: source %q takes no inputs", n.Name)
		}
		return nil
	case KindComputed:
		if len(n.Inputs) > 0 {
			return fmt.Errorf("blueprint: computed %q takes no inputs", n.Name)
		}
	case KindZip, KindJoin, KindSummarize, KindFullStream:
		if len(n.Inputs) == 0 {
			return fmt.Errorf("blueprint: %s %q: %w", n.Kind, n.Name, graph.ErrNoInputs)
		}
	default:
		return fmt.Errorf("%w: %q (node %q)", ErrUnknownKind, n.Kind, n.Name)
	}
	if n.Task == "" {
		return fmt.Errorf("%w: %s %q", ErrMissingTask, n.Kind, n.Name)
	}
	return nil
}

// Graph is a built blueprint.
type Graph struct {
	Name   string
	Output *graph.Output
	nodes  map[string]graph.Node
	order  []string
}

// Node returns a built node by name.
func (g *Graph) Node(name string) (graph.Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

type NodeInfo struct {
	Name string
	Kind string
	Size uint64
}

// Nodes describes every node in dependency order.
func (g *Graph) Nodes() []NodeInfo {
	out := make([]NodeInfo, 0, len(g.order))
	for _, name := range g.order {
		n := g.nodes[name]
		out = append(out, NodeInfo{Name: name, Kind: n.Kind(), Size: n.Size()})
	}
	return out
}

// Build constructs the graph. Task kinds are checked against tasks;
// computed nodes run their task here, once.
func (b *Blueprint) Build(ctx context.Context, tasks TaskLookup) (*Graph, error) {
	order, err := b.Order()
	if err != nil {
		return nil, err
	}

	specs := make(map[string]NodeSpec, len(b.Nodes))
	for _, n := range b.Nodes {
		specs[n.Name] = n
	}

	nodes := make(map[string]graph.Node, len(order))
	for _, name := range order {
		spec := specs[name]
		n, err := spec.build(ctx, tasks, nodes)
		if err != nil {
			return nil, err
		}
		nodes[name] = n
	}

	out, err := graph.NewOutput(nodes[b.Output], graph.WithName(b.Name))
	if err != nil {
		return nil, err
	}

	return &Graph{Name: b.Name, Output: out, nodes: nodes, order: order}, nil
}

func (n NodeSpec) build(ctx context.Context, tasks TaskLookup, built map[string]graph.Node) (graph.Node, error) {
	opts := []graph.Option{graph.WithName(n.Name)}
	if n.Local {
		opts = append(opts, graph.WithLocal())
	}

	if n.Kind == KindSource {
		return graph.NewSource(n.Values, opts...), nil
	}

	fn, ok := tasks.Lookup(n.Task)
	if !ok {
		return nil, fmt.Errorf("blueprint: node %q: %w: %q", n.Name, flow.ErrUnknownTask, n.Task)
	}

	inputs := make([]graph.Node, len(n.Inputs))
	for i, name := range n.Inputs {
		inputs[i] = built[name]
	}

	switch n.Kind {
	case KindComputed:
		return graph.NewComputedSource(ctx, computeWith(fn, n.Args), opts...), nil
	case KindZip:
		return graph.NewZip(n.Task, inputs, opts...)
	case KindJoin:
		return graph.NewJoin(n.Task, inputs, opts...)
	case KindSummarize:
		return graph.NewSummarize(n.Task, inputs[0], inputs[1:], opts...)
	default:
		return graph.NewFullStream(n.Task, inputs[0], inputs[1:], opts...)
	}
}

func computeWith(fn flow.TaskFunc, args []any) func(ctx context.Context) ([]any, error) {
	return func(ctx context.Context) ([]any, error) {
		v, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		items, ok := flow.AsSlice(v)
		if !ok {
			return nil, fmt.Errorf("%w: computed source got %T", flow.ErrNotList, v)
		}
		return items, nil
	}
}
