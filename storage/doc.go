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


// Package storage provides the storage abstraction layer for quarry.
//
// This package defines the interfaces that decouple document storage from the
// retrieval pipeline. The pipeline only depends on DocumentSource; the richer
// DocumentRepository is used by loaders and tooling.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction:
//
//	repo, err := badger.NewDocumentRepository(backend)  // returns storage.DocumentRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Implementations
//
//   - storage/badger: persistent BadgerDB store with date and passage indices
//   - storage/memory: in-memory DocumentSource for tests and embedding
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo, err := badger.NewDocumentRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
