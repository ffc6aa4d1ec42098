// Package llm turns raw post batches into an intelligence report using a
// hosted model. Providers share one prompt; the report normalizer downstream
// copes with whatever shape the model actually returns.
package llm

import (
	"fmt"
	"strings"
	"time"

	"compintel/internal/domain"
)

const systemPrompt = `You are a competitive intelligence analyst for a voice AI customer support company. You read competitors' public posts and extract business-relevant signals: funding, hiring, customer wins, product launches, partnerships, and market positioning.`

const reportFormat = `Return the analysis as a valid JSON object with the following structure:
{
  "fund_raise": [{"company": "Company Name", "description": "Brief description of the funding announcement", "url": "post URL", "critical": true}],
  "hiring": [{"company": "Company Name", "description": "Brief description of key hires or team changes", "url": "post URL"}],
  "customer_success": [{"company": "Company Name", "description": "Brief description of customer wins or case studies", "url": "post URL"}],
  "product": [{"company": "Company Name", "description": "Brief description of product launches or features", "url": "post URL"}],
  "partnerships": [{"company": "Company Name", "description": "Brief description of partnerships", "url": "post URL"}],
  "other": [{"company": "Company Name", "description": "Brief description of other significant updates", "url": "post URL"}]
}

IMPORTANT:
- Only include categories that have actual information
- Keep descriptions concise (1-2 sentences)
- Focus on business-relevant information
- Use the exact URL from the post
- Return ONLY valid JSON, no markdown formatting or extra text
- If no significant updates, return an empty JSON object: {}
- CRITICAL FLAG: set "critical": true only for funding rounds, acquisitions, major revenue milestones, or IPO announcements; omit the field otherwise`

// analysisPrompt builds the user message: posts grouped by company in
// first-seen order, then the required report structure.
func analysisPrompt(posts []domain.Post, day time.Time) string {
	grouped := map[string][]domain.Post{}
	var order []string
	for _, p := range posts {
		key := p.Company
		if key == "" {
			key = "@" + p.Author
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], p)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following posts from %s and categorize them into relevant business intelligence categories.\n\n", day.Format("2006-01-02"))
	b.WriteString(reportFormat)
	b.WriteString("\n\nPosts to analyze:\n")
	for _, company := range order {
		fmt.Fprintf(&b, "\nPosts from %s:\n", company)
		for i, p := range grouped[company] {
			fmt.Fprintf(&b, "\nPost %d:\n%s\nURL: %s\n", i+1, p.Text, p.URL)
		}
	}
	return b.String()
}
