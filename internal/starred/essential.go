package starred

import (
	"github.com/tidwall/gjson"
)

// Listing is the document served for the full view: every record untouched.
type Listing struct {
	Count        int      `json:"starred_repositories_count"`
	Repositories []Record `json:"starred_repositories"`
}

// Essential is the trimmed form of a public starred repository.
type Essential struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	URL         string   `json:"URL"`
	License     *string  `json:"license,omitempty"`
	Topics      []string `json:"topics"`
}

// EssentialListing is the document served for the essential view. Count
// includes private repositories even though they are left out of the list.
type EssentialListing struct {
	Count        int         `json:"starred_repositories_count"`
	Repositories []Essential `json:"starred_repositories"`
}

// NewListing wraps records for the full view.
func NewListing(records []Record) *Listing {
	if records == nil {
		records = []Record{}
	}
	return &Listing{Count: len(records), Repositories: records}
}

// Summarize keeps the public repositories and reduces each one to its
// essential fields, preserving order.
func Summarize(records []Record) *EssentialListing {
	out := &EssentialListing{
		Count:        len(records),
		Repositories: []Essential{},
	}
	for _, raw := range records {
		repo := gjson.ParseBytes(raw)
		if repo.Get("private").Bool() {
			continue
		}
		out.Repositories = append(out.Repositories, essentialOf(repo))
	}
	return out
}

func essentialOf(repo gjson.Result) Essential {
	e := Essential{
		Name: repo.Get("name").String(),
		URL:  repo.Get("html_url").String(),
	}

	if desc := repo.Get("description"); desc.Exists() && desc.Type != gjson.Null {
		s := desc.String()
		e.Description = &s
	}

	if license := repo.Get("license"); license.Exists() && license.Type != gjson.Null {
		name := license.Get("name").String()
		e.License = &name
	}

	if topics := repo.Get("topics"); topics.IsArray() {
		e.Topics = []string{}
		for _, topic := range topics.Array() {
			e.Topics = append(e.Topics, topic.String())
		}
	}
	return e
}
