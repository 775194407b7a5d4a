package repo

import (
	"encoding/json"
	"fmt"
)

func toJSON(val any) (string, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(data), nil
}

func messagesJSON(content []Message) (string, error) {
	if content == nil {
		content = []Message{}
	}
	return toJSON(content)
}

func objectJSON(val map[string]any) (string, error) {
	if val == nil {
		val = map[string]any{}
	}
	return toJSON(val)
}

func itemsJSON(items []OrderItem) (string, error) {
	if items == nil {
		items = []OrderItem{}
	}
	return toJSON(items)
}

func messagesFromJSON(data []byte) ([]Message, error) {
	msgs := []Message{}
	if len(data) == 0 {
		return msgs, nil
	}
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode conversation content: %w", err)
	}
	return msgs, nil
}

func itemsFromJSON(data []byte) ([]OrderItem, error) {
	items := []OrderItem{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	return items, nil
}

func objectFromJSON(data []byte) map[string]any {
	m := map[string]any{}
	if len(data) == 0 {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"_raw": string(data)}
	}
	return m
}
