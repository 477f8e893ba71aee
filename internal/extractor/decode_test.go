package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/session"
)

func TestDecodeSlot(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    session.Slot
		wantErr error
	}{
		{
			name: "complete",
			raw:  `{"date":"2025-06-02","start_time":"2025-06-02T15:00:00+05:30","end_time":"2025-06-02T16:00:00+05:30"}`,
			want: session.Slot{Date: "2025-06-02", StartTime: "2025-06-02T15:00:00+05:30", EndTime: "2025-06-02T16:00:00+05:30"},
		},
		{
			name: "fenced and padded",
			raw:  "```json\n{\"date\":\" 2025-06-02 \",\"start_time\":\"15:00\",\"end_time\":\"16:00\"}\n```",
			want: session.Slot{Date: "2025-06-02", StartTime: "15:00", EndTime: "16:00"},
		},
		{
			name:    "one empty field",
			raw:     `{"date":"2025-06-02","start_time":"15:00","end_time":""}`,
			wantErr: ErrIncompleteSlot,
		},
		{
			name:    "whitespace field",
			raw:     `{"date":"2025-06-02","start_time":"  ","end_time":"16:00"}`,
			wantErr: ErrIncompleteSlot,
		},
		{
			name:    "missing field",
			raw:     `{"date":"2025-06-02","start_time":"15:00"}`,
			wantErr: ErrIncompleteSlot,
		},
		{
			name:    "extra field",
			raw:     `{"date":"2025-06-02","start_time":"15:00","end_time":"16:00","note":"hi"}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "free text",
			raw:     "I think you mean tomorrow at 3pm",
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "trailing object",
			raw:     `{"date":"a","start_time":"b","end_time":"c"} {"date":"x"}`,
			wantErr: ErrMalformedResponse,
		},
		{
			name:    "empty",
			raw:     "  ",
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSlot(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, session.IsKind(err, session.KindExtraction))
				assert.Equal(t, session.Slot{}, got, "no partial slot on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
