package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "filled", input: "filled", want: Filled},
		{name: "canceled", input: "canceled", want: Canceled},
		{name: "british_cancelled", input: "cancelled", want: Canceled},
		{name: "rejected", input: "REJECTED", want: Rejected},
		{name: "new_is_in_flight", input: "new", want: Submitted},
		{name: "partial_fill_is_in_flight", input: "partially_filled", want: Submitted},
		{name: "garbage", input: "exploded", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, Filled.Terminal())
	assert.True(t, Canceled.Terminal())
	assert.True(t, Rejected.Terminal())
	assert.False(t, Submitted.Terminal())
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	got, err := ParseSide("BUY")
	assert.NoError(t, err)
	assert.Equal(t, Buy, got)

	got, err = ParseSide(" sell ")
	assert.NoError(t, err)
	assert.Equal(t, Sell, got)

	_, err = ParseSide("hold")
	assert.Error(t, err)
}

func TestParseOrderType(t *testing.T) {
	t.Parallel()

	got, err := ParseOrderType("market")
	assert.NoError(t, err)
	assert.Equal(t, Market, got)

	got, err = ParseOrderType("Limit")
	assert.NoError(t, err)
	assert.Equal(t, Limit, got)

	_, err = ParseOrderType("stop")
	assert.Error(t, err)
}
