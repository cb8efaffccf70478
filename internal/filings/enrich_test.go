package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/seenimoa/edgarlens/pkg/models"
)

// stubFetcher serves canned bodies by URL, with per-URL failures. Safe for
// concurrent use since the enricher fetches in parallel.
type stubFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	fails  map[string]error
	calls  map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies: make(map[string]string),
		fails:  make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (s *stubFetcher) Fetch(_ context.Context, url string, _ map[string]string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[url]++
	if err, ok := s.fails[url]; ok {
		return nil, err
	}
	body, ok := s.bodies[url]
	if !ok {
		return nil, fmt.Errorf("no canned body for %s", url)
	}
	return []byte(body), nil
}

func (s *stubFetcher) FetchJSON(ctx context.Context, url string, headers map[string]string, dest any) error {
	body, err := s.Fetch(ctx, url, headers)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

const eventDoc = `<html><body>
<p>On the Closing Date the registrant entered into a Credit Agreement.
See <b>Item 1.01</b>. In connection therewith, the Chief Executive Officer
departed, as described under Item 5.02.</p>
</body></html>`

const offeringDoc = `<html><body>
<p>The registrant proposes to offer up to $250 million of common stock,
with an over-allotment of $37,500,000.</p>
</body></html>`

func TestEnrichEventReport(t *testing.T) {
	f := newStubFetcher()
	f.bodies["http://docs.test/ev.htm"] = eventDoc

	in := []models.Filing{{FormType: "8-K", AccessionNo: "acc-1", PrimaryDoc: "http://docs.test/ev.htm"}}
	out := NewEnricher(f, 2).Enrich(context.Background(), in)

	if len(out) != 1 {
		t.Fatalf("batch length changed: %d", len(out))
	}
	if want := []string{"1.01", "5.02"}; !reflect.DeepEqual(out[0].Items, want) {
		t.Errorf("items = %v, want %v", out[0].Items, want)
	}
	if want := []string{"Material Agreement", "Executive Change"}; !reflect.DeepEqual(out[0].Badges, want) {
		t.Errorf("badges = %v, want %v", out[0].Badges, want)
	}
	if out[0].HasAmount {
		t.Error("event report must not carry an amount")
	}
}

func TestEnrichOffering(t *testing.T) {
	f := newStubFetcher()
	f.bodies["http://docs.test/s1.htm"] = offeringDoc

	in := []models.Filing{{FormType: "S-1", AccessionNo: "acc-2", PrimaryDoc: "http://docs.test/s1.htm"}}
	out := NewEnricher(f, 2).Enrich(context.Background(), in)

	if !out[0].HasAmount || out[0].AmountUSD != 250e6 {
		t.Errorf("amount = %v (has=%v), want 250e6", out[0].AmountUSD, out[0].HasAmount)
	}
	if len(out[0].Items) != 0 {
		t.Errorf("offering must not carry items: %v", out[0].Items)
	}
}

func TestEnrichDegradesSingleRecord(t *testing.T) {
	f := newStubFetcher()
	f.bodies["http://docs.test/good.htm"] = eventDoc
	f.fails["http://docs.test/bad.htm"] = fmt.Errorf("connection refused")

	in := []models.Filing{
		{FormType: "8-K", AccessionNo: "bad", PrimaryDoc: "http://docs.test/bad.htm"},
		{FormType: "8-K", AccessionNo: "good", PrimaryDoc: "http://docs.test/good.htm"},
	}
	out := NewEnricher(f, 2).Enrich(context.Background(), in)

	if len(out) != 2 {
		t.Fatalf("batch length changed: %d", len(out))
	}
	if out[0].Items != nil || out[0].Badges != nil || out[0].HasAmount {
		t.Errorf("failed record must stay unenriched: %+v", out[0])
	}
	if len(out[1].Items) == 0 {
		t.Error("sibling record must still be enriched")
	}
}

func TestEnrichPassesThroughNonTextual(t *testing.T) {
	f := newStubFetcher()
	in := []models.Filing{
		{FormType: "8-K", AccessionNo: "pdf", PrimaryDoc: "http://docs.test/doc.pdf"},
		{FormType: "8-K", AccessionNo: "none"},
		{FormType: "10-K", AccessionNo: "annual", PrimaryDoc: "http://docs.test/a.htm"},
	}
	out := NewEnricher(f, 2).Enrich(context.Background(), in)

	if !reflect.DeepEqual(in, out) {
		t.Errorf("non-textual and unclassified records must pass through unmodified:\nin  %v\nout %v", in, out)
	}
	if len(f.calls) != 0 {
		t.Errorf("no documents should have been fetched, got %v", f.calls)
	}
}

func TestEnrichPreservesOrder(t *testing.T) {
	f := newStubFetcher()
	for i := 0; i < 8; i++ {
		f.bodies[fmt.Sprintf("http://docs.test/%d.htm", i)] = eventDoc
	}
	in := make([]models.Filing, 8)
	for i := range in {
		in[i] = models.Filing{
			FormType:    "8-K",
			AccessionNo: fmt.Sprintf("acc-%d", i),
			PrimaryDoc:  fmt.Sprintf("http://docs.test/%d.htm", i),
		}
	}
	out := NewEnricher(f, 3).Enrich(context.Background(), in)
	for i := range out {
		if out[i].AccessionNo != in[i].AccessionNo {
			t.Fatalf("order changed at %d: %s", i, out[i].AccessionNo)
		}
	}
}

func TestStripMarkup(t *testing.T) {
	text := StripMarkup(`<html><body><p>Hello <b>world</b></p></body></html>`)
	if !strings.Contains(text, "Hello") || !strings.Contains(text, "world") {
		t.Errorf("text content lost: %q", text)
	}
	if strings.Contains(text, "<") {
		t.Errorf("markup survived: %q", text)
	}

	plain := StripMarkup("just plain text, no tags")
	if !strings.Contains(plain, "just plain text") {
		t.Errorf("plain text mangled: %q", plain)
	}
}
