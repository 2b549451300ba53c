package persistence

import "encoding/json"

// EncodeValue serializes v as JSON.
//
// Engine data (tokens, definitions) is JSON-shaped by nature, so JSON is the
// storage format of every SQL-backed store in this package. A nil value
// encodes to nil, which decodes back to the zero value.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// DecodeValue deserializes data produced by EncodeValue into a T.
// Empty input yields the zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}
