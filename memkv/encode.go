package memkv

import (
	"bytes"
	"encoding/gob"

	"github.com/kvmesh/kvclient/kvstore"
)

func encodeValue(v kvstore.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(b []byte) (kvstore.Value, error) {
	var v kvstore.Value
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return kvstore.Value{}, err
	}
	return v, nil
}

func compositeKey(area, key string) string {
	return area + "\x00" + key
}
