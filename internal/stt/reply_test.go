package stt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyParsesFullBody(t *testing.T) {
	body := `{
		"text": "hello world",
		"language": "en",
		"confidence_score": 0.91,
		"duration": 5.5,
		"model_used": "base",
		"processing_time": 2.3,
		"segments": [{"start_time": 0, "end_time": 1.5, "text": "hello", "confidence": 0.8}]
	}`

	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(body), &reply))

	assert.Equal(t, "hello world", reply.Text)
	assert.Equal(t, "en", reply.Language)
	assert.Equal(t, Float(0.91), reply.Confidence)
	assert.Equal(t, Float(5.5), reply.Duration)
	assert.Equal(t, "base", reply.ModelUsed)
	assert.Equal(t, Float(2.3), reply.ProcessingTime)
	require.Len(t, reply.Segments, 1)
	start, end := reply.Segments[0].Bounds()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 1.5, end)
	assert.Equal(t, Float(0.8), reply.Segments[0].Confidence)
}

func TestReplyMissingNumbersAreAbsent(t *testing.T) {
	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(`{"text": "hi", "duration": null}`), &reply))

	assert.Nil(t, reply.Confidence.Ptr())
	assert.Nil(t, reply.Duration.Ptr())
	assert.Nil(t, reply.ProcessingTime.Ptr())
}

func TestReplyWrongTypedNumbersAreAbsent(t *testing.T) {
	body := `{"text": "hi", "confidence_score": "invalid", "duration": "not a number", "processing_time": true}`

	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(body), &reply))

	assert.False(t, reply.Confidence.Valid)
	assert.False(t, reply.Duration.Valid)
	assert.False(t, reply.ProcessingTime.Valid)
}

func TestReplyNumericStringsAreAccepted(t *testing.T) {
	var reply Reply
	require.NoError(t, json.Unmarshal([]byte(`{"confidence_score": "0.5"}`), &reply))
	assert.Equal(t, Float(0.5), reply.Confidence)
}

func TestReplyNonFiniteNumbersAreAbsent(t *testing.T) {
	for _, v := range []string{`"NaN"`, `"Inf"`, `"-Inf"`, `"+Inf"`, `"infinity"`} {
		body := `{"text": "hi", "confidence_score": ` + v + `, "duration": ` + v + `, "processing_time": ` + v +
			`, "segments": [{"start_time": ` + v + `, "end": 1, "confidence": ` + v + `}]}`

		var reply Reply
		require.NoError(t, json.Unmarshal([]byte(body), &reply), v)
		assert.False(t, reply.Confidence.Valid, v)
		assert.False(t, reply.Duration.Valid, v)
		assert.False(t, reply.ProcessingTime.Valid, v)
		require.Len(t, reply.Segments, 1)
		assert.False(t, reply.Segments[0].StartTime.Valid, v)
		assert.False(t, reply.Segments[0].Confidence.Valid, v)

		_, err := json.Marshal(reply)
		assert.NoError(t, err, v)
	}
}

func TestSegmentBoundsLegacyNames(t *testing.T) {
	var seg ReplySegment
	require.NoError(t, json.Unmarshal([]byte(`{"start": 2.0, "end": 3.25, "text": "x"}`), &seg))

	start, end := seg.Bounds()
	assert.Equal(t, 2.0, start)
	assert.Equal(t, 3.25, end)
}

// When both naming schemes are present, start_time/end_time win.
func TestSegmentBoundsPreferNewNames(t *testing.T) {
	var seg ReplySegment
	require.NoError(t, json.Unmarshal([]byte(`{"start": 9, "end": 10, "start_time": 1, "end_time": 2}`), &seg))

	start, end := seg.Bounds()
	assert.Equal(t, 1.0, start)
	assert.Equal(t, 2.0, end)
}

func TestSegmentBoundsMixedNames(t *testing.T) {
	var seg ReplySegment
	require.NoError(t, json.Unmarshal([]byte(`{"start_time": 4, "end": 6}`), &seg))

	start, end := seg.Bounds()
	assert.Equal(t, 4.0, start)
	assert.Equal(t, 6.0, end)
}

func TestOptionalFloatMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A OptionalFloat `json:"a"`
		B OptionalFloat `json:"b"`
	}{A: Float(1.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1.5, "b": null}`, string(out))
}
