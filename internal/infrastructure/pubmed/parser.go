package pubmed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PubMedScanner/internal/domain"
	"PubMedScanner/internal/ports"
)

const (
	articleBaseURL = "https://pubmed.ncbi.nlm.nih.gov"

	maxAuthors     = 3
	etAlMarker     = "et al."
	unknownAuthors = "Unknown authors"
	missingTitle   = "(no title)"

	fallbackYear     = "2024"
	fallbackMonthDay = "01"
)

type journalAbbrev struct {
	name   string
	abbrev string
}

// journalAbbreviations maps full NLM journal titles to their standard
// abbreviations. Kept as an ordered slice so substring matching is
// deterministic: first entry wins.
var journalAbbreviations = []journalAbbrev{
	{"International Journal of Radiation Oncology, Biology, Physics", "Int J Radiat Oncol Biol Phys"},
	{"Clinical and Translational Radiation Oncology", "Clin Transl Radiat Oncol"},
	{"Radiotherapy and Oncology", "Radiother Oncol"},
	{"Journal of Radiation Research", "J Radiat Res"},
	{"Radiation Oncology", "Radiat Oncol"},
}

var monthNumbers = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// Parser extracts normalized articles from efetch payloads. The payload
// is run through the tolerant HTML tokenizer, which folds element names
// to lower case; all selectors below are therefore lower-cased tag names.
type Parser struct{}

var _ ports.RecordParser = (*Parser)(nil)

// NewParser returns a stateless record parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseRecords splits the payload into records and parses each one.
// Records without an identifier are skipped; a payload that cannot be
// tokenized at all is the only error.
func (p *Parser) ParseRecords(payload []byte) ([]domain.Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	var articles []domain.Article
	doc.Find("pubmedarticle").Each(func(i int, record *goquery.Selection) {
		article, ok := parseRecord(record)
		if !ok {
			return
		}
		articles = append(articles, article)
	})

	return articles, nil
}

// parseRecord builds one Article. A missing PMID is the only hard
// failure; every other field degrades to its fallback.
func parseRecord(record *goquery.Selection) (domain.Article, bool) {
	pmid := strings.TrimSpace(record.Find("pmid").First().Text())
	if pmid == "" {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(record.Find("articletitle").First().Text())
	if title == "" {
		title = missingTitle
	}

	return domain.Article{
		PMID:     pmid,
		Title:    title,
		Abstract: extractAbstract(record),
		Authors:  extractAuthors(record),
		Journal:  AbbreviateJournal(strings.TrimSpace(record.Find("journal").First().Find("title").First().Text())),
		PubDate:  extractPubDate(record),
		URL:      fmt.Sprintf("%s/%s/", articleBaseURL, pmid),
		DOI:      extractDOI(record),
	}, true
}

// extractAbstract joins all abstract sections with single spaces,
// prefixing labeled sections with "<Label>: ".
func extractAbstract(record *goquery.Selection) string {
	var sections []string
	record.Find("abstracttext").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if label, ok := s.Attr("label"); ok && label != "" {
			text = fmt.Sprintf("%s: %s", label, text)
		}
		sections = append(sections, text)
	})

	return strings.Join(sections, " ")
}

// extractAuthors keeps the first three display names and marks the rest
// with a single "et al." entry.
func extractAuthors(record *goquery.Selection) []string {
	var names []string
	record.Find("authorlist author").Each(func(i int, s *goquery.Selection) {
		last := strings.TrimSpace(s.Find("lastname").First().Text())
		fore := strings.TrimSpace(s.Find("forename").First().Text())
		switch {
		case last != "" && fore != "":
			names = append(names, fore+" "+last)
		case last != "":
			names = append(names, last)
		}
	})

	if len(names) == 0 {
		return []string{unknownAuthors}
	}
	if len(names) > maxAuthors {
		names = append(names[:maxAuthors:maxAuthors], etAlMarker)
	}

	return names
}

func extractPubDate(record *goquery.Selection) string {
	pubDate := record.Find("pubdate").First()

	year := strings.TrimSpace(pubDate.Find("year").First().Text())
	if year == "" {
		year = fallbackYear
	}

	month := normalizeMonth(strings.TrimSpace(pubDate.Find("month").First().Text()))
	day := padComponent(strings.TrimSpace(pubDate.Find("day").First().Text()))

	return fmt.Sprintf("%s/%s/%s", year, month, day)
}

// normalizeMonth maps month names through the static table and pads
// numeric months to two digits.
func normalizeMonth(month string) string {
	if numeric, ok := monthNumbers[month]; ok {
		return numeric
	}
	return padComponent(month)
}

func padComponent(v string) string {
	switch len(v) {
	case 0:
		return fallbackMonthDay
	case 1:
		return "0" + v
	default:
		return v
	}
}

// extractDOI takes the first article id tagged as a DOI.
func extractDOI(record *goquery.Selection) string {
	var doi string
	record.Find("articleid").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if idType, _ := s.Attr("idtype"); idType != "doi" {
			return true
		}
		doi = strings.TrimSpace(s.Text())
		return false
	})

	return doi
}

// AbbreviateJournal resolves a journal title through the static table:
// exact match first, then case-insensitive substring match against
// table entries, else the raw value.
func AbbreviateJournal(name string) string {
	if name == "" {
		return name
	}

	for _, entry := range journalAbbreviations {
		if entry.name == name {
			return entry.abbrev
		}
	}

	lower := strings.ToLower(name)
	for _, entry := range journalAbbreviations {
		if strings.Contains(lower, strings.ToLower(entry.name)) {
			return entry.abbrev
		}
	}

	return name
}
