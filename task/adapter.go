package task

import (
	"context"
	"fmt"
)

// Func adapts a typed function into an Activity. Arguments and results
// are marshalled with the converter assigned through SetConverter, which
// the activity data interceptor supplies before execution.
type Func[In, Out any] struct {
	Base

	fn        func(ctx context.Context, in In) (Out, error)
	argsCodec DataConverter
}

var (
	_ Activity       = (*Func[struct{}, struct{}])(nil)
	_ Initializer    = (*Func[struct{}, struct{}])(nil)
	_ ConverterAware = (*Func[struct{}, struct{}])(nil)
)

// NewFunc creates a Func activity around fn.
func NewFunc[In, Out any](fn func(ctx context.Context, in In) (Out, error)) *Func[In, Out] {
	return &Func[In, Out]{fn: fn}
}

// SetConverter implements ConverterAware.
func (f *Func[In, Out]) SetConverter(c DataConverter) { f.argsCodec = c }

func (f *Func[In, Out]) codec() DataConverter {
	if f.argsCodec == nil {
		return JSONConverter{}
	}
	return f.argsCodec
}

// Run implements Activity.
func (f *Func[In, Out]) Run(ctx context.Context, input []byte) ([]byte, error) {
	var in In
	if len(input) > 0 {
		if err := f.codec().Deserialize(input, &in); err != nil {
			return nil, fmt.Errorf("activity %s: decode input: %w", f.Name(), err)
		}
	}

	out, err := f.fn(ctx, in)
	if err != nil {
		return nil, err
	}

	data, err := f.codec().Serialize(out)
	if err != nil {
		return nil, fmt.Errorf("activity %s: encode output: %w", f.Name(), err)
	}
	return data, nil
}
