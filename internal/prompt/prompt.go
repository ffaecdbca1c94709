// File path: internal/prompt/prompt.go

// Package prompt builds the generation requests for each pipeline stage. All
// builders are pure: the same inputs always produce the same request, which
// keeps retries idempotent and tests deterministic.
package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/mjharlow/reglens/internal/compliance"
	"github.com/mjharlow/reglens/internal/llm/providers"
)

const systemRole = "You are an expert in the field of financial compliance and regulations with business context awareness."

// Shape keys the generation client validates against, one per stage.
const (
	ShapeRegulations = "regulations"
	ShapeArticles    = "articles"
	ShapeCitations   = "citations"
	ShapeSummary     = "summary"
)

// Regulations builds the stage-one request identifying relevant regulations.
func Regulations(text string) providers.Request {
	user := fmt.Sprintf(`Identify the regulations that may be relevant to the following marketing text:
====================
%s
====================

Important: This is marketing text that necessarily simplifies complex business operations. When determining relevance:
- Consider the likely underlying business processes, not just the exact wording
- Include regulations that are relevant to the core business functions described, not just explicitly mentioned
- Distinguish between regulations that would require explicit statements in marketing vs. those addressed in operational documents

Provide your response as a JSON object. Each entry must contain a single, exact regulation name and a description of its relevance to the text. Provide all regulations you are aware of that apply to the text.
- Do not group regulations together in an entry. E.g. "Data Privacy Regulations e.g. GDPR, CCPA" is incorrect - this should be two separate entries "GDPR" and "CCPA".
- Do not list areas of regulations. E.g. "Know Your Customer (KYC) Regulations" is not itself a regulation, but an area covered by regulations such as CFPB.
- Make your answer as complete as possible. If you miss any regulations, the user may be subject to penalties.
{"regulations": [
    {
        "regulation": "Regulation Name",
        "description": "Description of how the user input relates to this regulation, considering business context"
    },
    ...
]}`, text)
	return providers.Request{
		Shape: ShapeRegulations,
		Messages: []providers.Message{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: user},
		},
	}
}

// Articles builds the stage-two request listing the articles of one
// regulation that apply to the text.
func Articles(text string, regulation compliance.Regulation) providers.Request {
	user := fmt.Sprintf(`Identify the articles from the regulation %q that may be relevant to the following marketing text:
====================
%s
====================

Important: This is marketing text that necessarily simplifies complex business operations. When determining relevance:
- Consider the likely underlying business processes, not just the exact wording
- Distinguish between articles that would require explicit statements in marketing vs. those addressed in operational documents

Provide a list of articles that apply to the regulation. Give exact article numbers, e.g. for CFPB consumer liability I would expect "1005.6".
- Make your answer as complete as possible. If you miss any articles, the user may be subject to penalties.
Provide your response as a JSON object:
{
    "articles": [
        {
            "regulation": "Regulation Name",
            "article": "Article Name / Article Number",
            "description": "Description of how the user input relates to this article, considering business context"
        },
        ...
    ]
}`, regulation.Regulation, text)
	return providers.Request{
		Shape: ShapeArticles,
		Messages: []providers.Message{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: user},
		},
	}
}

// Citations builds the stage-four request for one article, optionally
// grounded on a related document found during the documents stage.
func Citations(text string, article compliance.Article, related *compliance.RelatedDocument) providers.Request {
	documentContext := ""
	if related != nil {
		title := related.SemanticIdentifier
		if title == "" {
			title = related.DocumentID
		}
		documentContext = fmt.Sprintf(`
The following document is related to this article and should be used as a reference:
====================
Title: %s
Content: %s
====================
`, title, related.Blurb)
	}
	user := fmt.Sprintf(`Provide exact citations from the provided document context for %s article %q which are relevant to the following text:
====================
%s
====================
Here is the document context:
%s

Important: This is marketing text that necessarily simplifies complex business operations. When determining relevance:
- Consider the likely underlying business processes, not just the exact wording
- Distinguish between citations that would require explicit statements in marketing vs. those addressed in operational documents
- If there is no document context or the document context is not relevant (e.g. it is not from the specified regulation/article), use your knowledge of the regulation to identify and output the most relevant citations.

- Do not include any other text outside the direct citations. Do not make up citations.
- Make your answer as complete as possible. If you miss any citations, the user may be subject to penalties.
- Provide at least one citation per article. The best responses would have multiple relevant citations for every article.
Provide your response as a valid-formatted JSON object:
{
    "citations": [
        {
            "regulation": "Regulation Name",
            "article": "Article Name / Article Number",
            "citation": "Citation from the article"
        },
        ...
    ]
}`, article.Regulation, article.Article, text, documentContext)
	return providers.Request{
		Shape: ShapeCitations,
		Messages: []providers.Message{
			{Role: "system", Content: systemRole},
			{Role: "user", Content: user},
		},
	}
}

// Summary builds the final request synthesizing every earlier finding into
// graded considerations.
func Summary(text string, regulations []compliance.Regulation, articles []compliance.Article, citations []compliance.Citation) providers.Request {
	user := fmt.Sprintf(`You are provided an original text, and related regulations/articles/citations.

Original Text:
====================
%s
====================

Regulations Found:
%s

Articles Found:
%s

Citations Found:
%s

Given this information, please analyze the text in its full marketing and business context. Consider that:

1. Marketing language often uses simplified terminology and shorthand that implies but doesn't state complete details
2. Many compliance concerns may be addressed in other business documents or practices not visible in this text
3. Not all regulatory considerations require explicit statements in marketing materials

For each potential regulatory consideration, provide:
1. The text segment that relates to regulatory considerations
2. Which regulation and article is relevant
3. A nuanced analysis that considers:
- Whether this is truly problematic or just needs supporting documentation/procedures
- The likely business context behind the statement
- Whether this represents a true risk or merely an area to monitor
4. The severity level using these guidelines:
- HIGH: Clear violation with no reasonable interpretation otherwise
- MEDIUM: Potential issue if certain business practices aren't in place
- LOW: Area to monitor or document, but likely addressed through standard business practices
5. Recommended action (which could include "No change needed, but ensure internal documentation exists")

Provide your response as a JSON object with the following structure:
{
    "summary": {
        "considerations": [
            {
                "text_segment": "The relevant text from the input",
                "regulation": "Name of the regulation",
                "article": "Specific article number/name",
                "analysis": "Nuanced analysis considering context and business realities",
                "severity": "high|medium|low",
                "recommended_action": "Suggested action or documentation need"
            }
        ]
    }
}`, text, mustIndent(regulations), mustIndent(articles), mustIndent(citations))
	return providers.Request{
		Shape: ShapeSummary,
		Messages: []providers.Message{
			{Role: "system", Content: systemRole + " You have understanding of both regulatory requirements and business context."},
			{Role: "user", Content: user},
		},
	}
}

func mustIndent(v interface{}) string {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(payload)
}
