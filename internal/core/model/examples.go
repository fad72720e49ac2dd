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

// This file provides sample inputs. The CLI uses them for its --example flag
// and the tests use them as realistic fixtures.
package model

// ExampleText is a short multi-sentence passage.
const ExampleText = "Go was designed at Google in 2007. It is a statically typed, compiled language. " +
	"Its concurrency model is built on goroutines and channels. Version 1.0 shipped in 2012. " +
	"Today it powers much of the cloud's infrastructure, from containers to proxies."

// GetExampleRequest returns a video request for ExampleText.
func GetExampleRequest() *GenerationRequest {
	return &GenerationRequest{
		Text:           ExampleText,
		Mode:           ModeVideo,
		Style:          StyleGradient,
		Language:       "en",
		EffectsEnabled: true,
		Segmentation:   SegmentBySentence,
		Allocation:     AllocateProportional,
	}
}
