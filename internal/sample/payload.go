// Package sample holds raw audio payloads and turns them into playable buffers.
package sample

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Payload is an encoded audio blob together with its declared MIME type.
type Payload struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether there is nothing to decode.
func (p Payload) Empty() bool {
	return len(p.Data) == 0
}

// ReadFile loads a payload from disk, guessing its MIME type from the file
// extension and falling back to the file contents.
func ReadFile(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("read sample %s: %w", path, err)
	}
	mime := DetectMIME(path)
	if mime == "" {
		mime = Sniff(data)
	}
	return Payload{Data: data, MIMEType: mime}, nil
}

var extensionTypes = map[string]string{
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
}

// DetectMIME returns the MIME type for a filename, or "" if unknown.
func DetectMIME(name string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(name))]
}

// Sniff guesses a MIME type from the leading bytes of data.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio/wav"
	case len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")):
		return "audio/mpeg"
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "audio/mpeg"
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS")):
		return "audio/ogg"
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "audio/webm"
	}
	return ""
}
