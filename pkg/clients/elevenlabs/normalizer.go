// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package elevenlabs_client

import (
	"regexp"
	"strings"
)

var (
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	reEmphasis   = regexp.MustCompile(`\*{1,2}([^*]+?)\*{1,2}|_{1,2}([^_]+?)_{1,2}`)
	reCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reQuote      = regexp.MustCompile(`(?m)^>\s?`)
	reImage      = regexp.MustCompile(`!\[(.*?)\]\(.*?\)`)
	reLink       = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	reRule       = regexp.MustCompile(`(?m)^(-{3,}|\*{3,}|_{3,})$`)
	reStray      = regexp.MustCompile(`[*_]+`)
	reSpace      = regexp.MustCompile(`\s+`)

	xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// NormalizeText prepares text for synthesis: markdown is dropped, XML
// characters are escaped (the service reads limited SSML) and whitespace is
// collapsed.
func NormalizeText(text string) string {
	if text == "" {
		return text
	}
	out := reHeading.ReplaceAllString(text, "")
	out = reCodeBlock.ReplaceAllString(out, "")
	out = reEmphasis.ReplaceAllString(out, "$1$2")
	out = reInlineCode.ReplaceAllString(out, "$1")
	out = reQuote.ReplaceAllString(out, "")
	out = reImage.ReplaceAllString(out, "$1")
	out = reLink.ReplaceAllString(out, "$1")
	out = reRule.ReplaceAllString(out, "")
	out = reStray.ReplaceAllString(out, "")
	out = xmlEscaper.Replace(out)
	return strings.TrimSpace(reSpace.ReplaceAllString(out, " "))
}
