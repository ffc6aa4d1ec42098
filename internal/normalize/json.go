package normalize

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"compintel/internal/domain"
)

var (
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
)

type jsonItem struct {
	Company     string `json:"company"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Critical    bool   `json:"critical"`
}

// parseJSON is the strict strategy: unfence, repair trailing commas,
// unmarshal. Succeeds only when at least one item comes out.
func parseJSON(text string) (domain.CategoryMap, bool) {
	cleaned := stripFences(text)
	cleaned = trailingCommaObject.ReplaceAllString(cleaned, "}")
	cleaned = trailingCommaArray.ReplaceAllString(cleaned, "]")

	sections, ok := unmarshalSections(cleaned)
	if !ok {
		// rescue attempt: slice out the outermost braces in case the
		// model wrapped its JSON in commentary
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end <= start {
			return nil, false
		}
		if sections, ok = unmarshalSections(cleaned[start : end+1]); !ok {
			return nil, false
		}
	}

	out := domain.CategoryMap{}
	for key, raw := range sections {
		cat, _ := domain.ParseCategory(key)
		if items := decodeSection(raw); len(items) > 0 {
			out[cat] = append(out[cat], items...)
		}
	}

	if out.Empty() {
		return nil, false
	}
	return out, true
}

func unmarshalSections(text string) (map[string]json.RawMessage, bool) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &sections); err != nil {
		return nil, false
	}
	return sections, true
}

// decodeSection accepts either an item array or a company→text object;
// single bare items are tolerated too.
func decodeSection(raw json.RawMessage) []domain.Item {
	var list []jsonItem
	if err := json.Unmarshal(raw, &list); err == nil {
		var items []domain.Item
		for _, it := range list {
			if item, ok := toItem(it); ok {
				items = append(items, item)
			}
		}
		return items
	}

	var single jsonItem
	if err := json.Unmarshal(raw, &single); err == nil {
		if item, ok := toItem(single); ok {
			return []domain.Item{item}
		}
	}

	var byCompany map[string]string
	if err := json.Unmarshal(raw, &byCompany); err == nil {
		companies := make([]string, 0, len(byCompany))
		for company := range byCompany {
			companies = append(companies, company)
		}
		sort.Strings(companies)

		var items []domain.Item
		for _, company := range companies {
			clean, url := extractURL(byCompany[company])
			if clean == "" && url == "" {
				continue
			}
			items = append(items, domain.Item{Company: company, Headline: clean, URL: url})
		}
		return items
	}

	return nil
}

func toItem(it jsonItem) (domain.Item, bool) {
	if strings.TrimSpace(it.Description) == "" {
		return domain.Item{}, false
	}
	clean, url := extractURL(it.Description)
	if it.URL != "" {
		url = it.URL
	}
	return domain.Item{
		Company:  strings.TrimSpace(it.Company),
		Headline: clean,
		URL:      url,
		Critical: it.Critical,
	}, true
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```markdown")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
