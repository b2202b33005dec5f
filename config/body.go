package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaterializeBody resolves the --body flag's value into request-body
// bytes. Three schemes are supported:
//
//	random://N       N random bytes, generated once at startup
//	base64://DATA    DATA is standard base64, decoded once
//	file://PATH      PATH is read once into memory
//
// A spec value with no recognized scheme is treated as a literal body.
func MaterializeBody(spec string) ([]byte, error) {
	switch {
	case strings.HasPrefix(spec, "random://"):
		return materializeRandomBody(strings.TrimPrefix(spec, "random://"))
	case strings.HasPrefix(spec, "base64://"):
		return materializeBase64Body(strings.TrimPrefix(spec, "base64://"))
	case strings.HasPrefix(spec, "file://"):
		return materializeFileBody(strings.TrimPrefix(spec, "file://"))
	case spec == "":
		return nil, nil
	default:
		return []byte(spec), nil
	}
}

func materializeRandomBody(sizeStr string) ([]byte, error) {
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return nil, fmt.Errorf("config: invalid random:// body size %q: %w", sizeStr, err)
	}
	if size < 0 {
		return nil, fmt.Errorf("config: random:// body size must be >= 0, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("config: generating random body: %w", err)
	}
	return buf, nil
}

func materializeBase64Body(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("config: invalid base64:// body: %w", err)
	}
	return decoded, nil
}

func materializeFileBody(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading file:// body %q: %w", path, err)
	}
	return data, nil
}
