// load.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package flightpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by LoadFile for a file extension it cannot decode.
var ErrUnknownFormat = errors.New("flightpath: unknown flight path format")

// yamlFlightPath is the mapping form of a YAML flight path file.
type yamlFlightPath struct {
	Steps []Record `yaml:"steps"`
}

// LoadFile reads a flight path from path. The format follows the extension:
// .hcl, .yaml, .yml or .json. vars supplies the var.* values of an HCL file
// and is ignored for the other formats.
func LoadFile(path string, vars map[string]string) (FlightPath, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flight path: %w", err)
	}

	var fp FlightPath
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		fp, err = ParseHCL(src, path, vars)
	case ".yaml", ".yml", ".json":
		// a JSON document is also a YAML document
		fp, err = ParseYAML(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

// ParseYAML decodes a flight path written either as a top-level sequence of
// records or as a mapping with a steps sequence. Unknown fields are rejected.
func ParseYAML(src []byte) (FlightPath, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parsing flight path: %w", err)
	}
	if len(doc.Content) == 0 {
		return FlightPath{}, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var records []Record
	switch kind := doc.Content[0].Kind; kind {
	case yaml.SequenceNode:
		if err := dec.Decode(&records); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding flight path: %w", err)
		}
	case yaml.MappingNode:
		var wrapped yamlFlightPath
		if err := dec.Decode(&wrapped); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding flight path: %w", err)
		}
		records = wrapped.Steps
	default:
		return nil, fmt.Errorf("%w: flight path must be a list of steps", ErrMalformedCommand)
	}
	return NewFlightPath(records)
}
