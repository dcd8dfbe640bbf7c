package blob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlob_Accessors(t *testing.T) {
	b := New(3, []byte{1, 2, 3, 4, 5}, []string{"3 packets lost! Packet = 5, Last = 1"})

	assert.Equal(t, 3, b.PacketCount())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, b.Data())
	assert.Equal(t, []string{"3 packets lost! Packet = 5, Last = 1"}, b.Warnings())
}

func TestBlob_WarningsNeverNil(t *testing.T) {
	b := New(0, nil, nil)
	assert.NotNil(t, b.Warnings())
	assert.Empty(t, b.Warnings())
}

func TestBlob_WriteTo(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}
	b := New(1, data, nil)

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), n)
	assert.Equal(t, data, buf.Bytes())
}

func TestPackData_LengthAndRoundTrip(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	words := PackData(data)

	require.Len(t, words, len(data)/WordSize)
	assert.Equal(t, Word(0x0001020304), words[0])
	assert.Equal(t, Word(0x0506070809), words[1])
}

func TestPackData_DropsTrailingPartialGroup(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	words := PackData(data)
	require.Len(t, words, 1)
	assert.Equal(t, Word(0x0102030405), words[0])
}

func TestPackData_Empty(t *testing.T) {
	assert.Empty(t, PackData(nil))
}
