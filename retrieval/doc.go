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

// Package retrieval turns a query into a list of relevant passages, each
// annotated with the text that surrounds it in its source document.
//
// A ContextRetriever fetches candidates from a storage.DocumentSource, ranks
// them with a hybrid searcher, drops weak matches and then, for each of the
// top k results, loads the full source document and cuts a context window
// around the matched passage:
//
//	retriever, err := retrieval.NewContextRetriever(source, searcher)
//	if err != nil {
//		return err
//	}
//	defer retriever.Release()
//
//	contexts, err := retriever.Retrieve(ctx, "how do I rotate keys", nil, 5)
//
// Window construction never removes a result. If the source document cannot
// be loaded or the passage cannot be found in it, the context is returned with
// an empty window and the failure is logged.
package retrieval
