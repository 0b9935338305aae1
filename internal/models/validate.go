package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidPayload = errors.New("invalid payload")

// DecodeStrict decodes JSON rejecting unknown fields and trailing data
func DecodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	return nil
}

func (c WorkerCapability) Validate() error {
	if c.WorkerType == "" {
		return fmt.Errorf("%w: worker_type is required", ErrInvalidPayload)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be within [0,1]", ErrInvalidPayload)
	}
	return nil
}

func (j FrameJob) Validate() error {
	if j.CameraID <= 0 {
		return fmt.Errorf("%w: camera_id is required", ErrInvalidPayload)
	}
	if j.Frame == "" {
		return fmt.Errorf("%w: frame is required", ErrInvalidPayload)
	}
	if j.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidPayload)
	}
	return nil
}

func (r WorkerResult) Validate() error {
	if r.CameraID <= 0 {
		return fmt.Errorf("%w: camera_id is required", ErrInvalidPayload)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidPayload)
	}
	if r.Detections == nil {
		return fmt.Errorf("%w: detections is required", ErrInvalidPayload)
	}
	for i, d := range r.Detections {
		if d.Class == "" && d.ClassID == nil {
			return fmt.Errorf("%w: detections[%d] has no class", ErrInvalidPayload, i)
		}
		if (d.Latitude == nil) != (d.Longitude == nil) {
			return fmt.Errorf("%w: detections[%d] needs both latitude and longitude", ErrInvalidPayload, i)
		}
	}
	return nil
}
