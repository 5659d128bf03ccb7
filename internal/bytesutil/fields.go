// Copyright 2024 The hotstore Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bytesutil has allocation-free helpers for splitting records.
package bytesutil

import (
	"bytes"
)

// Fields splits s around each instance of sep into dst, and reports
// whether s held exactly len(dst) fields.  The results are slices of s,
// not copies.  If s has too few or too many fields, dst is left partially
// filled and Fields returns false.
func Fields(s []byte, sep byte, dst [][]byte) bool {
	if len(dst) == 0 {
		return false
	}
	last := len(dst) - 1
	for i := 0; i < last; i++ {
		j := bytes.IndexByte(s, sep)
		if j < 0 {
			return false
		}
		dst[i] = s[:j]
		s = s[j+1:]
	}
	if bytes.IndexByte(s, sep) >= 0 {
		return false
	}
	dst[last] = s
	return true
}
