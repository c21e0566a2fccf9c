package validation

import (
	"fmt"
	"strings"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
)

const validationPromptTemplate = `You are a content validator ensuring blog posts do not contain false claims or hallucinations.

# KNOWLEDGE BASE (source of truth)
%s

# POST TO VALIDATE
Title: %s
Primary Keyword: %s
Secondary Keywords: %s
Rationale: %s

# YOUR TASK
Check the post for:
1. Claim mismatches: the title or rationale references services, products or prices NOT in the knowledge base.
2. Specificity issues: it claims "we offer X" or "our price is Y" when this is not documented.
3. Generic vs specific: generic topics are fine even if absent from the knowledge base; specific claims about the business must be in it.

# VALIDATION RULES
- Generic industry topic (how-to, best practices, trends): VALID, HIGH confidence
- Specific services, features or offers found in the knowledge base: VALID, HIGH confidence
- Specific services, features or offers not found: INVALID or LOW confidence with a warning
- Unsure: MEDIUM confidence with an explanatory warning

# OUTPUT FORMAT
Respond with a JSON object only:
{
  "isValid": true,
  "confidenceLevel": "HIGH",
  "warnings": [
    {"type": "claim_not_in_kb", "message": "Brief user-facing message", "detail": "Technical detail"}
  ]
}
Warning types: claim_not_in_kb, keyword_unverified, service_mismatch, generic_warning.
Do not flag generic educational content. A clearly generic post is valid, HIGH, with no warnings.`

func buildPrompt(item domain.ContentItem, knowledgeBase string) string {
	return fmt.Sprintf(validationPromptTemplate,
		knowledgeBase,
		item.Title,
		item.PrimaryKeyword,
		strings.Join(item.SecondaryKeywords, ", "),
		item.Rationale,
	)
}
