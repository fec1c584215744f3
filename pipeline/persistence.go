package pipeline

import (
	"encoding/gob"
	"fmt"

	"github.com/YuminosukeSato/goautoml/components"
	"github.com/YuminosukeSato/goautoml/core/model"
	"github.com/YuminosukeSato/goautoml/objectives"
	"github.com/YuminosukeSato/goautoml/pkg/errors"
	"github.com/YuminosukeSato/goautoml/preprocessing"
)

const snapshotVersion = 1

// componentRef stands in for a component used as a parameter value
// (final_estimator) inside a saved pipeline.
type componentRef struct {
	Key    string
	Params model.Parameters
}

func init() {
	gob.Register(componentRef{})
	gob.Register([]interface{}{})
	gob.Register(model.Parameters{})
}

type nodeSnapshot struct {
	Name   string
	Key    string
	Params model.Parameters
	Inputs []string
	State  []byte
}

// snapshot is the gob form of a pipeline. Components are stored by
// registry key, so loading needs the same components registered.
type snapshot struct {
	Version         int
	ID              string
	Name            string
	CustomName      bool
	ProblemType     model.ProblemType
	Nodes           []nodeSnapshot
	RandomSeed      int64
	NJobs           int
	Objective       string
	ObjectiveParams model.Parameters
	Threshold       *float64
	Fitted          bool
	NFeatures       int
	NSamples        int
	Encoder         *preprocessing.LabelEncoder
}

// Save writes p to path.
func Save(p *Pipeline, path string) error {
	snap, err := p.snapshot()
	if err != nil {
		return err
	}
	return model.SaveModel(snap, path)
}

// Load reads a pipeline written by Save. opts are applied on top of the
// saved settings, e.g. WithLogger.
func Load(path string, opts ...Option) (*Pipeline, error) {
	var snap snapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return nil, err
	}
	return fromSnapshot(snap, opts...)
}

// Marshal is Save into memory.
func Marshal(p *Pipeline) ([]byte, error) {
	snap, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	return model.EncodeGob(snap)
}

// Unmarshal is Load from memory.
func Unmarshal(data []byte, opts ...Option) (*Pipeline, error) {
	var snap snapshot
	if err := model.DecodeGob(data, &snap); err != nil {
		return nil, err
	}
	return fromSnapshot(snap, opts...)
}

func (p *Pipeline) snapshot() (snapshot, error) {
	nFeatures, nSamples := p.state.GetDimensions()
	snap := snapshot{
		Version:         snapshotVersion,
		ID:              p.id,
		Name:            p.name,
		CustomName:      p.customName,
		ProblemType:     p.problemType,
		RandomSeed:      p.seed,
		NJobs:           p.nJobs,
		Objective:       p.objective.Name(),
		ObjectiveParams: objectives.ParametersOf(p.objective),
		Threshold:       p.threshold,
		Fitted:          p.IsFitted(),
		NFeatures:       nFeatures,
		NSamples:        nSamples,
		Encoder:         p.encoder,
	}
	for _, gn := range p.graph.nodes {
		ns := nodeSnapshot{
			Name:   gn.name,
			Key:    gn.component.Name(),
			Params: encodeParams(userParams(gn.component)),
			Inputs: append([]string(nil), gn.refs...),
		}
		if snap.Fitted {
			state, err := gn.component.ExportState()
			if err != nil {
				return snapshot{}, errors.Wrapf(err, "pipeline: export state of %q", gn.name)
			}
			ns.State = state
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	return snap, nil
}

func fromSnapshot(snap snapshot, opts ...Option) (*Pipeline, error) {
	const op = "pipeline.Load"
	if snap.Version != snapshotVersion {
		return nil, errors.NewValueError(op, fmt.Sprintf("unsupported pipeline format version %d", snap.Version))
	}
	objective, err := objectives.Get(snap.Objective, snap.ObjectiveParams)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: objective", op)
	}

	nodes := make([]Node, len(snap.Nodes))
	for i, ns := range snap.Nodes {
		if !components.IsRegistered(ns.Key) {
			return nil, errors.Wrapf(errors.NewUnregisteredTypeError("component", ns.Key), "%s: node %q", op, ns.Name)
		}
		params, err := decodeParams(ns.Params)
		if err != nil {
			return nil, err
		}
		c, err := components.New(ns.Key, params)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: node %q", op, ns.Name)
		}
		nodes[i] = Node{Name: ns.Name, Component: Use(c), Inputs: ns.Inputs}
	}

	base := []Option{
		WithObjective(objective),
		WithRandomSeed(snap.RandomSeed),
		WithNJobs(snap.NJobs),
	}
	if snap.CustomName {
		base = append(base, WithCustomName(snap.Name))
	}
	if snap.Threshold != nil {
		base = append(base, WithThreshold(*snap.Threshold))
	}
	p, err := Build(snap.ProblemType, Graph(nodes...), append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	p.id = snap.ID

	if !snap.Fitted {
		return p, nil
	}
	for i, gn := range p.graph.nodes {
		if err := gn.component.ImportState(snap.Nodes[i].State); err != nil {
			return nil, errors.Wrapf(err, "%s: import state of %q", op, gn.name)
		}
	}
	if snap.Encoder != nil {
		snap.Encoder.BuildIndex()
	}
	p.encoder = snap.Encoder
	p.state.SetDimensions(snap.NFeatures, snap.NSamples)
	p.state.SetFitted()
	return p, nil
}

// encodeParams replaces component values with componentRefs.
func encodeParams(params model.Parameters) model.Parameters {
	out := make(model.Parameters, len(params))
	for k, v := range params {
		if c, ok := v.(components.Component); ok {
			out[k] = componentRef{Key: c.Name(), Params: encodeParams(userParams(c))}
			continue
		}
		out[k] = v
	}
	return out
}

func decodeParams(params model.Parameters) (model.Parameters, error) {
	out := make(model.Parameters, len(params))
	for k, v := range params {
		ref, ok := v.(componentRef)
		if !ok {
			out[k] = v
			continue
		}
		if !components.IsRegistered(ref.Key) {
			return nil, errors.NewUnregisteredTypeError("component", ref.Key)
		}
		inner, err := decodeParams(ref.Params)
		if err != nil {
			return nil, err
		}
		c, err := components.New(ref.Key, inner)
		if err != nil {
			return nil, err
		}
		out[k] = c
	}
	return out, nil
}
