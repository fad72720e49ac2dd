// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// RequestReader parses a queued JSON generation request. It is the entry
// point of message driven workflows.
type RequestReader struct {
	cor.BaseCommand
}

func NewRequestReader(name string) *RequestReader {
	return &RequestReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute reads the raw message from the input parameter, which may be a
// string or a []byte.
func (c *RequestReader) Execute(context cor.Context) {
	var raw []byte
	switch in := context.Get(c.GetInputParam()).(type) {
	case string:
		raw = []byte(in)
	case []byte:
		raw = in
	default:
		c.Fail(context, model.NewErrorf(model.KindInvalidRequest, "unsupported message type %T", in))
		return
	}

	req := &model.GenerationRequest{}
	if err := json.Unmarshal(raw, req); err != nil {
		c.Fail(context, model.NewError(model.KindInvalidRequest, fmt.Errorf("failed to unmarshal generation request: %w", err)))
		return
	}
	context.Add(ParamRequest, req)
	c.Succeed(context, req)
}
