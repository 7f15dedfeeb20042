package llm

import "strings"

// Finish reasons that indicate the call succeeded at the protocol level
// but produced no usable content.
const (
	FinishSafety            = "SAFETY"
	FinishProhibitedContent = "PROHIBITED_CONTENT"
	FinishBlocklist         = "BLOCKLIST"
)

// IsSafetyFinish reports whether the first candidate was refused on safety
// grounds. Such a response is not a transport failure; extraction maps it
// to KindSafetyBlocked.
func IsSafetyFinish(resp *GenerateResponse) bool {
	if resp == nil || len(resp.Candidates) == 0 {
		return false
	}
	switch resp.Candidates[0].FinishReason {
	case FinishSafety, FinishProhibitedContent, FinishBlocklist:
		return true
	}
	return false
}

// ResponseText returns the concatenated text parts of the first candidate.
// A response without any text fails with KindGeneric.
func ResponseText(resp *GenerateResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", NewError(KindGeneric, "empty response from model")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", NewError(KindGeneric, "response contains no text")
	}
	return sb.String(), nil
}

// ResponseInlineData returns the first inline binary payload found in the
// first candidate's parts. Text-only parts are skipped; if no part carries
// binary data the call fails with ErrNoImage.
func ResponseInlineData(resp *GenerateResponse) (*Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return part.InlineData, nil
		}
	}
	return nil, ErrNoImage
}

// ResponseCitations extracts grounding citations from the first candidate,
// preserving chunk order and dropping duplicate URIs. The result is empty
// but non-nil when no grounding metadata is present.
func ResponseCitations(resp *GenerateResponse) []Citation {
	citations := []Citation{}
	if resp == nil || len(resp.Candidates) == 0 {
		return citations
	}
	grounding := resp.Candidates[0].Grounding
	if grounding == nil {
		return citations
	}
	seen := make(map[string]struct{}, len(grounding.Chunks))
	for _, chunk := range grounding.Chunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		if _, dup := seen[chunk.Web.URI]; dup {
			continue
		}
		seen[chunk.Web.URI] = struct{}{}
		citations = append(citations, Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return citations
}
