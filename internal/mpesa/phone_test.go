package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "local format with leading zero", input: "0712345678", want: "254712345678"},
		{name: "bare nine digits", input: "712345678", want: "254712345678"},
		{name: "already international", input: "254712345678", want: "254712345678"},
		{name: "with plus prefix", input: "+254712345678", want: "254712345678"},
		{name: "with spaces and dashes", input: "0712 345-678", want: "254712345678"},
		{name: "too short", input: "07123", wantErr: true},
		{name: "too long", input: "2547123456789", wantErr: true},
		{name: "ten digits not starting 07", input: "0812345678", wantErr: true},
		{name: "nine digits not starting 7", input: "812345678", wantErr: true},
		{name: "twelve digits not starting 254", input: "255712345678", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "letters only", input: "phone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
