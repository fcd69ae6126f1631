package tracex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imattdu/fntrace/errorx"
)

func TestTraceIDFromEventID(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		want    string
		code    errorx.CodeEntry
	}{
		{name: "canonical uuid", eventID: "e8400000-e29b-41d4-a716-446655440000", want: "e8400000e29b41d4a716446655440000"},
		{name: "urn form", eventID: "urn:uuid:e8400000-e29b-41d4-a716-446655440000", want: "e8400000e29b41d4a716446655440000"},
		{name: "surrounding spaces", eventID: "  e8400000-e29b-41d4-a716-446655440000 ", want: "e8400000e29b41d4a716446655440000"},
		{name: "empty", eventID: "", code: errorx.ErrEventIDMissing},
		{name: "not a uuid", eventID: "not-a-uuid", code: errorx.ErrEventIDMalformed},
		{name: "nil uuid", eventID: "00000000-0000-0000-0000-000000000000", code: errorx.ErrEventIDMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := TraceIDFromEventID(tt.eventID)
			if tt.want == "" {
				require.Error(t, err)
				assert.True(t, errorx.HasCode(err, tt.code), err.Error())
				assert.True(t, errorx.IsBiz(err))
				assert.False(t, id.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}
