package tailer

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Decoder turns raw log bytes into text. Without a charmap it passes UTF-8
// through untouched.
type Decoder struct {
	name string
	cm   *charmap.Charmap
}

// NewDecoder returns a decoder for the named log encoding: utf-8 (the
// default), windows-1252 or iso-8859-1.
func NewDecoder(name string) (*Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return &Decoder{name: "utf-8"}, nil
	case "windows-1252", "cp1252":
		return &Decoder{name: "windows-1252", cm: charmap.Windows1252}, nil
	case "iso-8859-1", "latin1":
		return &Decoder{name: "iso-8859-1", cm: charmap.ISO8859_1}, nil
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", name)
	}
}

func (d *Decoder) Name() string {
	if d == nil {
		return "utf-8"
	}
	return d.name
}

// Decode converts data to a string. Each call uses a fresh transformer, so a
// Decoder may be shared between engines.
func (d *Decoder) Decode(data []byte) (string, error) {
	if d == nil || d.cm == nil {
		return string(data), nil
	}
	decoded, err := d.cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
