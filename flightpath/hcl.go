// hcl.go

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
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFlightPath is the top-level structure of an HCL flight path:
//
//	step "move" {
//	  direction = "left"
//	  value     = var.side
//	}
type hclFlightPath struct {
	Steps []*Record `hcl:"step,block"`
}

// ParseHCL decodes an HCL flight path. Expressions may refer to var.<name>, resolved
// from vars; values that parse as numbers are numbers, everything else is a string.
func ParseHCL(src []byte, filename string, vars map[string]string) (FlightPath, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL flight path: %w", diags)
	}

	var parsed hclFlightPath
	if diags := gohcl.DecodeBody(file.Body, varContext(vars), &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL flight path: %w", diags)
	}

	records := make([]Record, 0, len(parsed.Steps))
	for _, r := range parsed.Steps {
		records = append(records, *r)
	}
	return NewFlightPath(records)
}

// varContext exposes vars to HCL expressions as the var object.
func varContext(vars map[string]string) *hcl.EvalContext {
	attrs := make(map[string]cty.Value, len(vars))
	for name, raw := range vars {
		if n, err := cty.ParseNumberVal(raw); err == nil {
			attrs[name] = n
			continue
		}
		attrs[name] = cty.StringVal(raw)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(attrs)},
	}
}
