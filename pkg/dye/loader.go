package dye

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

var (
	// ErrInputMissing is returned when the dye catalog file does not exist.
	ErrInputMissing = errors.New("input file not found")

	// ErrInputParse is returned when the dye catalog is not a JSON array of
	// objects with integer itemID fields.
	ErrInputParse = errors.New("input parse error")
)

// LoadItemIDs reads the dye catalog at path and returns its item IDs in file order.
func LoadItemIDs(path string) ([]ItemID, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputMissing, path)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	log.Info().Str("path", path).Msg("Loading dye data")

	return ReadItemIDs(f)
}

// ReadItemIDs decodes a JSON array of dye entries and extracts their itemID
// fields. Entries without an itemID are skipped with a warning; an itemID that
// is not an integer fails the whole load.
func ReadItemIDs(r io.Reader) ([]ItemID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: expected JSON array at root level", ErrInputParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: expected JSON array at root level", ErrInputParse)
	}

	ids := make([]ItemID, 0, len(entries))
	for i, raw := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			log.Warn().Int("index", i).RawJSON("entry", raw).Msg("Dye entry is not an object, skipping")
			continue
		}

		rawID, ok := fields["itemID"]
		if !ok {
			log.Warn().Int("index", i).RawJSON("entry", raw).Msg("Dye entry missing 'itemID', skipping")
			continue
		}

		id, err := parseItemID(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInputParse, i, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func parseItemID(raw json.RawMessage) (ItemID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, fmt.Errorf("decode itemID: %w", err)
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("itemID must be an integer, got %s", raw)
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("itemID must be an integer, got %s", num)
	}
	return ItemID(n), nil
}
