// Copyright 2024 The TLSF Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlsf

// trace gates diagnostic tracing of the public entry points to os.Stderr.
// Flip it to true locally to watch allocator traffic; it costs nothing in
// the common case since the compiler dead-code-eliminates every "if trace"
// branch.
const trace = false
