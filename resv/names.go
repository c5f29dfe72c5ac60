// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

// Visibility mirrors the channel-mode visibility classes m_names.c checks
// before listing a channel's membership to a requester who isn't a member
// of it (original_source/modules/m_names.c's PubChannel/SecretChannel
// checks).
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
	VisibilitySecret
)

// NamesChannel is the minimal view of a channel the NAMES collaborator
// needs: enough to decide whether to list it at all, and whether to list
// its member nicks, to a given requester.
type NamesChannel struct {
	Name       string
	Visibility Visibility
	IsMember   bool // whether the requester is a member of this channel
	Members    []string
}

// VisibleToRequester reports whether chan should appear at all in a NAMES
// reply to a non-member requester (m_names.c: private/secret channels are
// skipped in the global sweep unless the requester is on them; the RESV
// enforcement sweep, by contrast, always operates on the full membership
// regardless of visibility class, since it isn't displaying anything to a
// third party).
func (c NamesChannel) VisibleToRequester() bool {
	if c.IsMember {
		return true
	}
	return c.Visibility == VisibilityPublic
}

// ListedMembers returns the nicks that should be shown in a NAMES reply
// for this channel to the current requester, respecting VisibleToRequester.
func (c NamesChannel) ListedMembers() []string {
	if !c.VisibleToRequester() {
		return nil
	}
	return c.Members
}

// BuildNamReplyLines paginates a channel's member list into one or more
// RPL_NAMREPLY trailing strings, each short enough to fit the wire length
// limit once the numeric's leading fields (":<server> 353 <nick> = <chan> :")
// are accounted for by the caller via maxTrailingLen. Reuses the same
// word-chunking approach the teacher uses to paginate long PRIVMSG text
// (split.go/ChunkWords in the root package) applied to a name list instead
// of free text.
func BuildNamReplyLines(members []string, maxTrailingLen int) []string {
	chunks := chunkWords(members, maxTrailingLen)
	lines := make([]string, 0, len(chunks))
	for _, c := range chunks {
		lines = append(lines, joinSpace(c))
	}
	return lines
}

func joinSpace(words []string) string {
	if len(words) == 0 {
		return ""
	}
	out := words[0]
	for _, w := range words[1:] {
		out += " " + w
	}
	return out
}

// chunkWords duplicates the root package's ChunkWords algorithm rather than
// importing it, to keep this package free of a dependency on the
// server/event plumbing (see parse.go's eventLike for the same reasoning).
func chunkWords(words []string, maxLen int) [][]string {
	if maxLen <= 0 || len(words) == 0 {
		return nil
	}

	var chunks [][]string
	var cur []string
	var curLen int

	for _, w := range words {
		add := len(w)
		if len(cur) > 0 {
			add++
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
