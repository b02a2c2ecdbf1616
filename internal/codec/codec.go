// Package codec converts boards to and from the JSON string stored in an entity's
// content field.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"planboard/internal/board"
	"planboard/internal/model"

	"github.com/bytedance/sonic"
)

var ErrMalformed = errors.New("malformed board content")

var api = sonic.ConfigStd

// Decode parses stored content. Empty content yields ok=false: the caller should
// synthesize a default board.
func Decode(content string) (b model.Board, ok bool, err error) {
	if strings.TrimSpace(content) == "" {
		return nil, false, nil
	}
	if err := api.UnmarshalFromString(content, &b); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if b == nil {
		return nil, false, nil
	}
	b = normalize(b)
	if err := board.Validate(b); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return b, true, nil
}

// Encode renders b with two-space indentation. A nil board encodes as [].
func Encode(b model.Board) (string, error) {
	out, err := api.MarshalIndent(normalize(b), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode board: %w", err)
	}
	return string(out), nil
}

// normalize replaces nil item lists so they encode as [] rather than null.
func normalize(b model.Board) model.Board {
	if b == nil {
		return model.Board{}
	}
	var out model.Board
	for i := range b {
		if b[i].Items != nil {
			continue
		}
		if out == nil {
			out = make(model.Board, len(b))
			copy(out, b)
		}
		out[i].Items = []model.ItemRef{}
	}
	if out == nil {
		return b
	}
	return out
}
