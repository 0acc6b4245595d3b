package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
)

// GenerateJSON renders games as an indented JSON array. Artifact metadata is
// carried as decoded json.Number/string values, so numeric-looking strings
// such as zero-padded keypad codes survive the round trip.
func GenerateJSON(games []game.ParsedGame) ([]byte, error) {
	docs := make([]gameDoc, len(games))
	for i, g := range games {
		docs[i] = encodeGame(g)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return nil, fmt.Errorf("encode games: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
