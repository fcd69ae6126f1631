package tracex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imattdu/fntrace/errorx"
)

func TestNewPropagatorFields(t *testing.T) {
	tests := []struct {
		names  []string
		fields []string
	}{
		{names: []string{"jaeger"}, fields: []string{"uber-trace-id"}},
		{names: []string{"tracecontext", "baggage"}, fields: []string{"traceparent", "tracestate", "baggage"}},
		{names: []string{" Jaeger ", "jaeger", "none", ""}, fields: []string{"uber-trace-id"}},
		{names: nil, fields: nil},
	}

	for _, tt := range tests {
		p, err := NewPropagator(tt.names...)
		require.NoError(t, err)
		assert.ElementsMatch(t, tt.fields, p.Fields(), "%v", tt.names)
	}
}

func TestNewPropagatorOT(t *testing.T) {
	p, err := NewPropagator("ot")
	require.NoError(t, err)
	assert.Contains(t, p.Fields(), "ot-tracer-traceid")
}

func TestNewPropagatorUnknown(t *testing.T) {
	_, err := NewPropagator("jaeger", "b4")
	require.Error(t, err)
	assert.True(t, errorx.HasCode(err, errorx.ErrPropagator))
}
