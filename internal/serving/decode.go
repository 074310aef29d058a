package serving

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"repeat-purchase-lab/internal/domain"
)

// decodeStrict decodes exactly one JSON value into v, rejecting unknown
// fields and trailing data.
func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return fmt.Errorf("invalid feature record: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected data after feature record")
	}
	return nil
}

func decodeRecord(data []byte) (domain.FeatureRecord, error) {
	var rec domain.FeatureRecord
	err := decodeStrict(bytes.NewReader(data), &rec)
	return rec, err
}
