package sink

import (
	"encoding/json"
	"fmt"
)

// Text encodes elements with fmt formatting, one per line.
func Text[T any]() Encoder[T] {
	return func(value T) ([]byte, error) {
		return fmt.Appendf(nil, "%v\n", value), nil
	}
}

// JSONLines encodes one JSON document per line.
func JSONLines[T any]() Encoder[T] {
	return func(value T) ([]byte, error) {
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
}
