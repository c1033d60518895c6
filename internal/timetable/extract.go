package timetable

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CandidateSelector matches one travel-time candidate on the result page.
const CandidateSelector = ".candidate_list_txt"

var timeToken = regexp.MustCompile(`\d{1,2}:\d{2}`)

// PartialPolicy decides what happens to a block that carried a single time token.
type PartialPolicy int

const (
	// KeepPartial emits the block with an empty To.
	KeepPartial PartialPolicy = iota
	// DropPartial leaves the block out.
	DropPartial
)

// ParsePartialPolicy maps "keep"/"drop" to a PartialPolicy.
func ParsePartialPolicy(s string) (PartialPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return KeepPartial, nil
	case "drop":
		return DropPartial, nil
	default:
		return KeepPartial, fmt.Errorf("unknown partial policy %q", s)
	}
}

func (p PartialPolicy) String() string {
	if p == DropPartial {
		return "drop"
	}
	return "keep"
}

type scanState int

const (
	expectFrom scanState = iota
	expectTo
)

// Extractor turns a result page into TrainTime records. The zero value keeps partial blocks.
type Extractor struct {
	Policy PartialPolicy
}

// Extract runs the default Extractor over html.
func Extract(html string) ([]TrainTime, error) {
	return Extractor{}.Extract(html)
}

// Extract returns one record per candidate block, in document order.
// A document without any candidate block is reported as ErrMalformedResponse.
func (e Extractor) Extract(html string) ([]TrainTime, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	blocks := doc.Find(CandidateSelector)
	if blocks.Length() == 0 {
		return nil, fmt.Errorf("%w: no %s blocks", ErrMalformedResponse, CandidateSelector)
	}

	records := make([]TrainTime, 0, blocks.Length())
	blocks.Each(func(_ int, block *goquery.Selection) {
		record, ok := scanBlock(block.Text())
		if !ok {
			return
		}
		if record.To == "" && e.Policy == DropPartial {
			return
		}
		records = append(records, record)
	})

	return records, nil
}

func scanBlock(text string) (TrainTime, bool) {
	var record TrainTime
	state := expectFrom

scan:
	for _, token := range timeToken.FindAllString(text, -1) {
		switch state {
		case expectFrom:
			record.From = token
			state = expectTo
		case expectTo:
			record.To = token
			state = expectFrom
			// Tokens after the arrival time (durations, later legs) are ignored.
			break scan
		}
	}

	return record, record.From != ""
}
