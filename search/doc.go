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


// Package search provides hybrid semantic and keyword search over a candidate set.
//
// The HybridSearcher scores every candidate twice, concurrently:
//   - Semantic: cosine similarity between query and candidate embeddings
//   - Keyword: Okapi BM25 over stop-word filtered tokens
//
// Each phase is min-max normalized to [0,1]. The top RerankTopK results of each
// phase are unioned by ID (semantic order first) and fused with a weighted sum.
// A result missing from one phase contributes 0 for that phase. Results are
// then filtered by dotted-path metadata equality, stably sorted by fused score
// and truncated to MaxResults.
package search
