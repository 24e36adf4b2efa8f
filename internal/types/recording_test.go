//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerRecording_DataURI(t *testing.T) {
	rec := AnswerRecording{Data: []byte("hello"), MIMEType: "audio/ogg"}
	assert.Equal(t, "data:audio/ogg;base64,aGVsbG8=", rec.DataURI())

	noMime := AnswerRecording{Data: []byte("hello")}
	assert.Equal(t, "data:audio/webm;base64,aGVsbG8=", noMime.DataURI())
}

func TestParseDataURI(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		rec := AnswerRecording{Data: []byte{0x1a, 0x45, 0xdf, 0xa3}, MIMEType: "audio/webm"}
		got, err := ParseDataURI(rec.DataURI())
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("codec parameter", func(t *testing.T) {
		got, err := ParseDataURI("data:audio/webm;codecs=opus;base64,aGVsbG8=")
		require.NoError(t, err)
		assert.Equal(t, "audio/webm", got.MIMEType)
		assert.Equal(t, []byte("hello"), got.Data)
	})

	errCases := map[string]string{
		"no scheme":    "audio/webm;base64,aGVsbG8=",
		"no separator": "data:audio/webm;base64",
		"no mime":      "data:;base64,aGVsbG8=",
		"not base64":   "data:audio/webm,hello",
		"bad body":     "data:audio/webm;base64,!!!",
	}
	for name, uri := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataURI(uri)
			assert.Error(t, err)
		})
	}
}

func TestAnswerRecording_Empty(t *testing.T) {
	assert.True(t, AnswerRecording{}.Empty())
	assert.True(t, AnswerRecording{MIMEType: "audio/webm"}.Empty())
	assert.False(t, AnswerRecording{Data: []byte{1}}.Empty())
}
