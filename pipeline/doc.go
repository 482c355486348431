// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pipeline runs a query through validation, parsing, intent
// classification, retrieval and answer generation.
//
// Stages run in order and each is timed into the response metrics:
//
//	validate -> parse -> classify -> retrieve -> generate
//
// The first three are deterministic and never retried. Retrieval and
// generation talk to external services and are retried with a fixed delay.
// The context is checked before every attempt and while waiting, so a
// cancelled request stops promptly.
//
// A rejected query returns (nil, err) where err wraps core.ErrValidation.
// When retrieval or generation exhausts its retries, Process returns a failed
// PipelineResponse carrying the metrics gathered so far together with the
// error. Finding no relevant sources is not a failure.
//
// Usage:
//
//	p, err := pipeline.New(validator, retriever, assembler,
//		pipeline.WithRegisterer(prometheus.DefaultRegisterer))
//	if err != nil {
//		return err
//	}
//	resp, err := p.Process(ctx, "How do I rotate API keys?", pipeline.WithTenant("acme"))
package pipeline
