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


package workflow

import (
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/commands"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
)

// RequestMessageWorkflow handles a generation request delivered as a JSON
// message: the message in cor.CtxIn is parsed, then the generation workflow
// runs.
type RequestMessageWorkflow struct {
	cor.BaseCommand
	generation *GenerationWorkflow
	chain      cor.Chain
}

func (m *RequestMessageWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *RequestMessageWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewRequestReader("request-message-reader"))
	out.AddCommand(m.generation)
	m.chain = out
}

func NewRequestMessageWorkflow(config *cloud.Config, deps Dependencies) *RequestMessageWorkflow {
	out := &RequestMessageWorkflow{
		BaseCommand: *cor.NewBaseCommand("request-message-workflow"),
		generation:  NewGenerationWorkflow(config, deps),
	}
	out.initializeChain()
	return out
}
