// Copyright 2025 AUTHORS
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

// Package lazyonce is a tiny generic memoize-once helper, equivalent
// to tailscale.com/types/lazy.SyncValue. Pulling in all of
// tailscale.com for one helper type isn't worth the dependency graph
// when nothing else here needs the networking stack it ships with.
package lazyonce

import "sync"

// Value memoizes the result of a fallible computation, running it at
// most once across the process lifetime.
type Value[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Get runs f the first time it is called and caches the result
// (including error) for every subsequent call.
func (v *Value[T]) Get(f func() (T, error)) (T, error) {
	v.once.Do(func() {
		v.val, v.err = f()
	})
	return v.val, v.err
}
