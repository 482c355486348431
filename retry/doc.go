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

// Package retry runs an operation repeatedly until it succeeds, the attempt
// budget runs out or the context is cancelled.
//
// The context is checked before every attempt and while waiting between
// attempts, so a cancelled request never starts another attempt:
//
//	attempts, err := retry.Do(ctx, retry.Policy{MaxAttempts: 3, Delay: time.Second}, func(ctx context.Context) error {
//		return callUpstream(ctx)
//	})
package retry
