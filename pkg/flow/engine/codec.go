package engine

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Codec converts task payloads and results to bytes and back. Debug mode
// routes every task through it.
type Codec interface {
	EncodeTask(flow.Task) ([]byte, error)
	DecodeTask([]byte) (flow.Task, error)
	EncodeResult(flow.Result[any]) ([]byte, error)
	DecodeResult([]byte) (flow.Result[any], error)
}

func init() {
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// GobCodec encodes payloads with encoding/gob. Custom argument types must
// be registered with gob.Register.
type GobCodec struct{}

type wireTask struct {
	Kind  string
	Args  []any
	Shape int
	Node  string
}

type wireFailure struct {
	Kind    int
	Message string
	Trace   string
	Task    string
}

type wireResult struct {
	Value   any
	Items   []any
	IsList  bool
	Failed  bool
	Failure wireFailure
}

func (GobCodec) EncodeTask(t flow.Task) ([]byte, error) {
	return encode(wireTask{Kind: t.Kind, Args: t.Args, Shape: int(t.Shape), Node: t.Node})
}

func (GobCodec) DecodeTask(b []byte) (flow.Task, error) {
	var w wireTask
	if err := decode(b, &w); err != nil {
		return flow.Task{}, err
	}
	return flow.Task{Kind: w.Kind, Args: w.Args, Shape: flow.Shape(w.Shape), Node: w.Node}, nil
}

func (GobCodec) EncodeResult(r flow.Result[any]) ([]byte, error) {
	var w wireResult
	switch {
	case r.IsFailure():
		f := r.Failure()
		w.Failed = true
		w.Failure = wireFailure{Kind: int(f.Kind), Message: f.Message, Trace: f.Trace, Task: f.Task}
	case r.IsList():
		w.IsList = true
		w.Items = r.Items()
	default:
		w.Value = r.Result()
	}
	return encode(w)
}

func (GobCodec) DecodeResult(b []byte) (flow.Result[any], error) {
	var w wireResult
	if err := decode(b, &w); err != nil {
		return flow.Result[any]{}, err
	}
	switch {
	case w.Failed:
		return flow.FromFailure[any](flow.NewFailure(flow.FailureKind(w.Failure.Kind),
			w.Failure.Message, w.Failure.Trace, w.Failure.Task)), nil
	case w.IsList:
		items := w.Items
		if items == nil {
			items = []any{}
		}
		return flow.List(items), nil
	default:
		return flow.Success(w.Value), nil
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

func decode(b []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrCodec, err)
	}
	return nil
}
