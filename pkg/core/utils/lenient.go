package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrUndecodable is returned when no decoding strategy accepts the input.
var ErrUndecodable = errors.New("input is not valid JSON or Hjson")

// Strategy names which decoder accepted a lenient input.
type Strategy string

const (
	StrategyJSON     Strategy = "json"
	StrategyRepaired Strategy = "repaired"
	StrategyHJSON    Strategy = "hjson"
)

// RepairJSON fixes the usual hand-typed mistakes: unquoted keys, single quotes,
// trailing commas, comments and unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("repair json: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts Hjson (comments, unquoted keys and strings, optional
// commas) into standard JSON so that custom json.Unmarshaler types still apply.
func ParseHJSON(data []byte) ([]byte, error) {
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("re-encode hjson: %w", err)
	}
	return out, nil
}

// DecodeLenient decodes input into v, trying strict JSON first, then Hjson,
// then repaired JSON. It reports which strategy succeeded.
func DecodeLenient(input []byte, v interface{}) (Strategy, error) {
	trimmed := bytes.TrimSpace(stripFence(input))
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrUndecodable)
	}

	strictErr := decodeStrict(trimmed, v)
	if strictErr == nil {
		return StrategyJSON, nil
	}

	if converted, err := ParseHJSON(trimmed); err == nil {
		if err := decodeStrict(converted, v); err == nil {
			return StrategyHJSON, nil
		}
	}

	if repaired, err := RepairJSON(string(trimmed)); err == nil {
		if err := decodeStrict([]byte(repaired), v); err == nil {
			return StrategyRepaired, nil
		}
	}

	return "", fmt.Errorf("%w: %v", ErrUndecodable, strictErr)
}

func decodeStrict(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// stripFence removes an outer ``` fence, as pasted from chat tools or docs.
func stripFence(input []byte) []byte {
	s := strings.TrimSpace(string(input))
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return input
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return []byte(s)
}
