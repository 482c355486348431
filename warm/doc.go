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


// Package warm precomputes document embeddings so the first queries against
// a freshly loaded store do not pay for embedding every candidate.
//
// A Warmer walks the searchable documents of a storage.DocumentSource in
// batches and sends them through an ai.Embedder, normally the Redis-backed
// cache.CachedEmbedder, retrying failed batches with exponential backoff.
package warm
