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

// Package query turns raw user input into a validated, classified query.
//
// Three components are provided, applied in order by the pipeline:
//
//   - Validator: rejects malformed or prompt-injection input and sanitizes the rest
//   - Parser: normalizes text, classifies the query type and extracts keywords
//   - IntentClassifier: derives intent category, specificity and sub-intents
//
// All three are stateless after construction and safe for concurrent use.
// Pattern tables are evaluated in declaration order and the first match wins
// whenever two entries would otherwise tie.
package query
