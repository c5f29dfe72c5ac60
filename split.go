// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

// MaxIRCLength is the maximum wire length of a single line, per RFC 2812:
// messages SHALL NOT exceed 512 characters including the trailing CRLF.
const MaxIRCLength = 512 - len("\r\n")

// ChunkWords groups words into as few runs as possible such that joining a
// run with a single space never produces a string longer than maxLen. Used
// to paginate a RPL_NAMREPLY nick list (names.go) the way the teacher's
// splitPRIVMSG (split.go) paginates long PRIVMSG text — same "don't exceed
// the wire length limit" problem, applied to a list of tokens instead of a
// free-text trailing parameter.
func ChunkWords(words []string, maxLen int) [][]string {
	if maxLen <= 0 || len(words) == 0 {
		return nil
	}

	var chunks [][]string
	var cur []string
	var curLen int

	for _, w := range words {
		add := len(w)
		if len(cur) > 0 {
			add++ // separating space
		}

		if curLen+add > maxLen && len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
			curLen = 0
			add = len(w)
		}

		cur = append(cur, w)
		curLen += add
	}

	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}

	return chunks
}
