package repository

import (
	jsoniter "github.com/json-iterator/go"

	"go-tryon/internal/capture"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func encodeSession(s *capture.Session) ([]byte, error) {
	return json.Marshal(s)
}

func decodeSession(data []byte) (*capture.Session, error) {
	var s capture.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
