package pipeline

import (
	"bytes"
	"os"

	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/graph"
)

// Input is a decoded input file: either a graph to lay out or a layout
// computed earlier.
type Input struct {
	Graph  *graph.Graph
	Layout *graph.Layout
}

// IsLayout reports whether the input already carries positions.
func (in Input) IsLayout() bool { return in.Layout != nil }

// Load reads path and decodes it as a layout or a graph, whichever it is.
func Load(path string) (Input, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Input{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Input{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "input file %s", path)
		}
		return Input{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return Decode(data)
}

// Decode parses JSON that is either a layout or a graph.
func Decode(data []byte) (Input, error) {
	if graph.IsLayoutData(data) {
		l, err := graph.UnmarshalLayout(data)
		if err != nil {
			return Input{}, err
		}
		return Input{Layout: &l}, nil
	}
	g, err := graph.ReadGraph(bytes.NewReader(data))
	if err != nil {
		return Input{}, err
	}
	return Input{Graph: &g}, nil
}
