package vin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "1HGCM82633A004352", want: "1HGCM82633A004352"},
		{name: "lowercase normalized", raw: "1hgcm82633a004352", want: "1HGCM82633A004352"},
		{name: "surrounding whitespace trimmed", raw: "  1HGCM82633A004352\n", want: "1HGCM82633A004352"},
		{name: "too short", raw: "SHORT", wantErr: true},
		{name: "too long", raw: "1HGCM82633A0043521", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_PermissiveCharset(t *testing.T) {
	// Charset is intentionally not checked; any 17-character string passes.
	got, err := Validate("IIIIIOOOOOQQQQQ!!")
	require.NoError(t, err)
	assert.Len(t, got, Length)
}
