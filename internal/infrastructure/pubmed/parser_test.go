package pubmed

import (
	"strings"
	"testing"
)

const sampleRecord = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">38012345</PMID>
      <Article>
        <Journal>
          <Title>Radiotherapy and Oncology</Title>
        </Journal>
        <ArticleTitle>Hypofractionation outcomes in early-stage disease</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Prior trials were small.</AbstractText>
          <AbstractText Label="RESULTS">Outcomes were comparable.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Tanaka</LastName><ForeName>Yuki</ForeName></Author>
          <Author><LastName>Mori</LastName><ForeName>Aiko</ForeName></Author>
          <Author><LastName>Sato</LastName><ForeName>Ren</ForeName></Author>
          <Author><LastName>Ito</LastName><ForeName>Kenji</ForeName></Author>
        </AuthorList>
      </Article>
      <DateCompleted>
      </DateCompleted>
    </MedlineCitation>
    <PubmedData>
      <History>
        <PubMedPubDate PubStatus="pubmed">
        </PubMedPubDate>
      </History>
      <ArticleIdList>
        <ArticleId IdType="pubmed">38012345</ArticleId>
        <ArticleId IdType="doi">10.1016/j.radonc.2024.110001</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseRecordsFullRecord(t *testing.T) {
	t.Parallel()

	p := NewParser()
	articles, err := p.ParseRecords([]byte(sampleRecord))
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.PMID != "38012345" {
		t.Fatalf("unexpected pmid: %s", a.PMID)
	}
	if a.Title != "Hypofractionation outcomes in early-stage disease" {
		t.Fatalf("unexpected title: %s", a.Title)
	}
	if a.Abstract != "BACKGROUND: Prior trials were small. RESULTS: Outcomes were comparable." {
		t.Fatalf("unexpected abstract: %q", a.Abstract)
	}
	if a.Journal != "Radiother Oncol" {
		t.Fatalf("expected abbreviated journal, got %q", a.Journal)
	}
	if a.DOI != "10.1016/j.radonc.2024.110001" {
		t.Fatalf("unexpected doi: %s", a.DOI)
	}
	if a.URL != "https://pubmed.ncbi.nlm.nih.gov/38012345/" {
		t.Fatalf("unexpected url: %s", a.URL)
	}

	want := []string{"Yuki Tanaka", "Aiko Mori", "Ren Sato", "et al."}
	if len(a.Authors) != len(want) {
		t.Fatalf("expected %d author entries, got %v", len(want), a.Authors)
	}
	for i := range want {
		if a.Authors[i] != want[i] {
			t.Fatalf("author %d: expected %q, got %q", i, want[i], a.Authors[i])
		}
	}
}

func TestParseRecordsSkipsRecordWithoutPMID(t *testing.T) {
	t.Parallel()

	payload := `<PubmedArticleSet>
	  <PubmedArticle>
	    <MedlineCitation>
	      <Article><ArticleTitle>Orphan record</ArticleTitle></Article>
	    </MedlineCitation>
	  </PubmedArticle>
	  <PubmedArticle>
	    <MedlineCitation>
	      <PMID>11111</PMID>
	      <Article><ArticleTitle>Valid record</ArticleTitle></Article>
	    </MedlineCitation>
	  </PubmedArticle>
	</PubmedArticleSet>`

	articles, err := NewParser().ParseRecords([]byte(payload))
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].PMID != "11111" {
		t.Fatalf("unexpected pmid: %s", articles[0].PMID)
	}
}

func TestParseRecordsFieldFallbacks(t *testing.T) {
	t.Parallel()

	payload := `<PubmedArticleSet>
	  <PubmedArticle>
	    <MedlineCitation>
	      <PMID>22222</PMID>
	      <Article></Article>
	    </MedlineCitation>
	  </PubmedArticle>
	</PubmedArticleSet>`

	articles, err := NewParser().ParseRecords([]byte(payload))
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != missingTitle {
		t.Fatalf("expected title placeholder, got %q", a.Title)
	}
	if a.Abstract != "" {
		t.Fatalf("expected empty abstract, got %q", a.Abstract)
	}
	if a.PubDate != "2024/01/01" {
		t.Fatalf("expected fallback date, got %q", a.PubDate)
	}
	if len(a.Authors) != 1 || a.Authors[0] != unknownAuthors {
		t.Fatalf("expected unknown-authors marker, got %v", a.Authors)
	}
	if a.DOI != "" {
		t.Fatalf("expected empty doi, got %q", a.DOI)
	}
}

func TestParseRecordsPubDateMonthName(t *testing.T) {
	t.Parallel()

	payload := `<PubmedArticleSet>
	  <PubmedArticle>
	    <MedlineCitation>
	      <PMID>33333</PMID>
	      <Article>
	        <Journal>
	          <JournalIssue><PubDate><Year>2025</Year><Month>Nov</Month><Day>7</Day></PubDate></JournalIssue>
	        </Journal>
	      </Article>
	    </MedlineCitation>
	  </PubmedArticle>
	</PubmedArticleSet>`

	articles, err := NewParser().ParseRecords([]byte(payload))
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].PubDate != "2025/11/07" {
		t.Fatalf("unexpected pub date: %s", articles[0].PubDate)
	}
}

func TestAbbreviateJournal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Radiotherapy and Oncology", "Radiother Oncol"},
		{"RADIOTHERAPY AND ONCOLOGY (Amsterdam)", "Radiother Oncol"},
		{"clinical and translational radiation oncology", "Clin Transl Radiat Oncol"},
		{"Journal of Something Else", "Journal of Something Else"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := AbbreviateJournal(tc.in); got != tc.want {
			t.Fatalf("AbbreviateJournal(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAbbreviateJournalDeterministicOnOverlap(t *testing.T) {
	t.Parallel()

	// "Radiation Oncology" is a substring of the clinical/translational
	// title; the longer entry must win regardless of run.
	for i := 0; i < 10; i++ {
		got := AbbreviateJournal("The Clinical and Translational Radiation Oncology Journal")
		if got != "Clin Transl Radiat Oncol" {
			t.Fatalf("iteration %d: got %q", i, got)
		}
	}
}

func TestParseRecordsDuplicatePMIDsKept(t *testing.T) {
	t.Parallel()

	// The parser reports records as-is; deduplication belongs to the
	// retriever.
	payload := strings.Replace(sampleRecord, "</PubmedArticleSet>", "", 1)
	payload += `<PubmedArticle>
	  <MedlineCitation>
	    <PMID>38012345</PMID>
	    <Article><ArticleTitle>Duplicate</ArticleTitle></Article>
	  </MedlineCitation>
	</PubmedArticle></PubmedArticleSet>`

	articles, err := NewParser().ParseRecords([]byte(payload))
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 records, got %d", len(articles))
	}
}
