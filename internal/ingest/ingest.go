// Package ingest accepts raw backtest payloads and checks their shape.
// It never interprets field contents; that is the normalizer's job.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/yourusername/lab-ranker/internal/models"
)

// envelopeKeys are the keys under which platform responses and exported
// files carry the list of backtests.
var envelopeKeys = []string{"Data", "data", "items", "results", "I"}

var backtestIDKeys = []string{"backtest_id", "backtestId"}

// Ingest checks that one decoded payload is an object and returns it as
// a RawResult.
func Ingest(payload interface{}) (models.RawResult, error) {
	switch v := payload.(type) {
	case models.RawResult:
		if v == nil {
			return nil, fmt.Errorf("%w: payload is null", models.ErrMalformedInput)
		}
		return v, nil
	case map[string]interface{}:
		if v == nil {
			return nil, fmt.Errorf("%w: payload is null", models.ErrMalformedInput)
		}
		return models.RawResult(v), nil
	case nil:
		return nil, fmt.Errorf("%w: payload is null", models.ErrMalformedInput)
	default:
		return nil, fmt.Errorf("%w: payload is not an object (got %T)", models.ErrMalformedInput, payload)
	}
}

// Decode decodes a single JSON payload. Numbers are kept as json.Number so
// the normalizer sees the exact digits the platform sent.
func Decode(data []byte) (models.RawResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	return Ingest(v)
}

// DecodeBatch reads a JSON array, a stream of JSON values (JSON lines) or
// an envelope object holding an array of backtests. Elements that are not
// objects are kept as nil entries so they still get a disposition.
func DecodeBatch(r io.Reader) ([]models.RawResult, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var values []interface{}
	for {
		var v interface{}
		err := dec.Decode(&v)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode backtest payloads: %w", err)
		}
		values = append(values, v)
	}

	if len(values) == 1 {
		switch v := values[0].(type) {
		case []interface{}:
			return FromSlice(v), nil
		case map[string]interface{}:
			if items, ok := envelopeItems(v); ok {
				return FromSlice(items), nil
			}
		}
	}
	return FromSlice(values), nil
}

// FromSlice converts decoded values into raw results, keeping a nil entry
// for anything that is not an object.
func FromSlice(values []interface{}) []models.RawResult {
	results := make([]models.RawResult, 0, len(values))
	for _, v := range values {
		raw, err := Ingest(v)
		if err != nil {
			results = append(results, nil)
			continue
		}
		results = append(results, raw)
	}
	return results
}

// ReadFiles decodes and concatenates the batches stored in paths, in order.
func ReadFiles(paths ...string) ([]models.RawResult, error) {
	var all []models.RawResult
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		batch, err := DecodeBatch(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		all = append(all, batch...)
	}
	return all, nil
}

func envelopeItems(obj map[string]interface{}) ([]interface{}, bool) {
	// A backtest may carry arrays of its own under the same keys.
	if hasBacktestIdentity(obj) {
		return nil, false
	}
	for _, key := range envelopeKeys {
		switch v := obj[key].(type) {
		case []interface{}:
			return v, true
		case map[string]interface{}:
			if items, ok := envelopeItems(v); ok {
				return items, true
			}
		}
	}
	return nil, false
}

func hasBacktestIdentity(obj map[string]interface{}) bool {
	for _, key := range backtestIDKeys {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}
