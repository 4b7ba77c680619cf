package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMUTF8RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		encoded []byte
	}{
		{"ascii", "Lcom/example/Foo;", append([]byte("Lcom/example/Foo;"), 0)},
		{"empty", "", []byte{0}},
		{"nul", "a\x00b", []byte{'a', 0xc0, 0x80, 'b', 0}},
		{"two byte", "é", []byte{0xc3, 0xa9, 0}},
		{"three byte", "€", []byte{0xe2, 0x82, 0xac, 0}},
		{"supplementary", "\U0001F600", []byte{0xed, 0xa0, 0xbd, 0xed, 0xb8, 0x80, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendMUTF8(nil, tt.in)
			require.Equal(t, tt.encoded, got)

			s, n, err := DecodeMUTF8(got, 0)
			require.NoError(t, err)
			require.Equal(t, tt.in, s)
			require.Equal(t, len(got), n)
		})
	}
}

func TestUTF16Len(t *testing.T) {
	require.Equal(t, 0, UTF16Len(""))
	require.Equal(t, 3, UTF16Len("abc"))
	require.Equal(t, 1, UTF16Len("€"))
	require.Equal(t, 2, UTF16Len("\U0001F600"))
}

func TestDecodeMUTF8Errors(t *testing.T) {
	_, _, err := DecodeMUTF8([]byte("abc"), 0)
	require.ErrorIs(t, err, ErrTruncated)

	_, _, err = DecodeMUTF8([]byte{0xc3, 0x41, 0}, 0)
	require.ErrorIs(t, err, ErrMalformedString)

	_, _, err = DecodeMUTF8([]byte{0xf0, 0x9f, 0x98, 0x80, 0}, 0)
	require.ErrorIs(t, err, ErrMalformedString)
}
