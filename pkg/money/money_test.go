package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[int64]string{
		0:      "$0",
		300:    "$3",
		350:    "$3.50",
		5:      "$0.05",
		123450: "$1,234.50",
		123400: "$1234",
		-250:   "-$2.50",
	}
	for cents, want := range cases {
		assert.Equal(t, want, Format(cents), "cents=%d", cents)
	}
}

func TestParseDollars(t *testing.T) {
	cases := map[string]int64{
		"3":      300,
		"3.5":    350,
		"$4.25":  425,
		"0.005":  1,
		"2.675":  268,
		"1,000":  100000,
		" 0.75 ": 75,
	}
	for raw, want := range cases {
		got, err := ParseDollars(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, bad := range []string{"", "abc", "$"} {
		_, err := ParseDollars(bad)
		assert.Error(t, err, bad)
	}
}

func TestFromFloat(t *testing.T) {
	assert.EqualValues(t, 50, FromFloat(0.5))
	assert.EqualValues(t, 268, FromFloat(2.675))
	assert.EqualValues(t, 0, FromFloat(0))
}
