package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxFromCorners(t *testing.T) {
	b := BoxFromCorners(100, 200, 150, 280)
	assert.Equal(t, BBox{X: 125, Y: 240, Width: 50, Height: 80, X1: 100, Y1: 200, X2: 150, Y2: 280}, b)
}

func TestTimestampFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-01-02T03:04:05Z"`:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		`"2025-01-02T03:04:05.123456"`: time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC),
		`"2025-01-02 03:04:05"`:        time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		`1735787045`:                   time.Unix(1735787045, 0).UTC(),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), raw)
	}

	var bad Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestTimestampEchoesRawText(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-02T03:04:05.123456"`), &ts))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-02T03:04:05.123456"`, string(out))
	assert.Equal(t, "2025-01-02T03:04:05.123456", ts.Key())
}

func TestDecodeStrictRejectsUnknownFields(t *testing.T) {
	var job FrameJob
	err := DecodeStrict([]byte(`{"camera_id":1,"frame":"aGk=","extra":true}`), &job)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	require.NoError(t, DecodeStrict([]byte(`{"camera_id":1,"frame":"aGk=","timestamp":"2025-01-02T03:04:05Z","geofence_id":3}`), &job))
	require.NoError(t, job.Validate())
	assert.Equal(t, int64(3), *job.ZoneHint)
}

func TestFrameJobValidate(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Error(t, FrameJob{}.Validate())
	assert.Error(t, FrameJob{CameraID: 1, Timestamp: ts}.Validate())
	assert.NoError(t, FrameJob{CameraID: 1, Frame: "aGk=", Timestamp: ts}.Validate())

	var job FrameJob
	require.NoError(t, DecodeStrict([]byte(`{"camera_id":1,"frame":"aGk="}`), &job))
	err := job.Validate()
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "timestamp")

	require.NoError(t, DecodeStrict([]byte(`{"camera_id":1,"frame":"aGk=","timestamp":null}`), &job))
	assert.ErrorIs(t, job.Validate(), ErrInvalidPayload)
}

func TestWorkerResultValidate(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Error(t, WorkerResult{}.Validate())
	assert.Error(t, WorkerResult{CameraID: 1, Timestamp: ts}.Validate())
	assert.Error(t, WorkerResult{CameraID: 1, Detections: []RawDetection{}}.Validate())
	lat := 1.0
	assert.Error(t, WorkerResult{CameraID: 1, Timestamp: ts, Detections: []RawDetection{{Class: "person", Latitude: &lat}}}.Validate())
	assert.NoError(t, WorkerResult{CameraID: 1, Timestamp: ts, Detections: []RawDetection{}}.Validate())

	var result WorkerResult
	require.NoError(t, DecodeStrict([]byte(`{"camera_id":1,"detections":[]}`), &result))
	err := result.Validate()
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestCapabilityValidate(t *testing.T) {
	assert.Error(t, WorkerCapability{}.Validate())
	assert.Error(t, WorkerCapability{WorkerType: "yolo_inference", ConfidenceThreshold: 2}.Validate())
	assert.NoError(t, WorkerCapability{WorkerType: "yolo_inference", Model: "yolov8n", ConfidenceThreshold: 0.5}.Validate())
}
