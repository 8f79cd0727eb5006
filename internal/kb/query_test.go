package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/wikikb/pkg/types"
)

func TestLookupEntity(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	e, err := store.LookupEntity(context.Background(), "Q1")
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "Q1" {
		t.Errorf("entity id = %s, want Q1", e.ID)
	}
	// Claims come back byte-for-byte as loaded.
	if string(e.Claims) != `{"P31":"Q515"}` {
		t.Errorf("claims = %s, want original payload", e.Claims)
	}
}

func TestLookupEntityNotFound(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	_, err := store.LookupEntity(context.Background(), "Q99")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing entity error = %v, want ErrNotFound", err)
	}
}

func TestReadsBeforeReadyRejected(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()

	if err := store.PutEntity(ctx, types.EntityRecord{ID: "Q1", Name: "Paris"}); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LookupEntity(ctx, "Q1"); !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("lookup during load error = %v, want ErrPhaseViolation", err)
	}
	if _, err := store.SearchEntityText(ctx, "Paris", 5); !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("search during load error = %v, want ErrPhaseViolation", err)
	}
	if _, err := store.ResolveAlias(ctx, "Paris", 0, 5); !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("resolve during load error = %v, want ErrPhaseViolation", err)
	}
}

func TestSearchEntityTextAlignment(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()

	// Distinct searchable names; each query must come back with the id
	// loaded alongside that name, which only holds if the text rows stay
	// positionally aligned with the identity rows.
	recs := []types.EntityRecord{
		{ID: "Q10", Name: "Zanzibar"},
		{ID: "Q11", Name: "Quasar"},
		{ID: "Q12", Name: "Obelisk"},
		{ID: "Q13", Name: "Marzipan"},
	}
	if err := store.PutEntities(ctx, recs); err != nil {
		t.Fatal(err)
	}
	if err := store.SignalEntitiesComplete(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Finalize(ctx); err != nil {
		t.Fatal(err)
	}

	for _, rec := range recs {
		hits, err := store.SearchEntityText(ctx, rec.Name, 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(hits) != 1 || hits[0].EntityID != rec.ID {
			t.Errorf("search %q hits = %+v, want exactly %s", rec.Name, hits, rec.ID)
		}
	}
}

func TestSearchEntityTextTieBreak(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()

	err := store.PutEntities(ctx, []types.EntityRecord{
		{ID: "Q5", Name: "Mercury"},
		{ID: "Q4", Name: "Mercury"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SignalEntitiesComplete(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Finalize(ctx); err != nil {
		t.Fatal(err)
	}

	hits, err := store.SearchEntityText(ctx, "Mercury", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	// Equal relevance resolves by ascending entity id.
	if hits[0].EntityID != "Q4" || hits[1].EntityID != "Q5" {
		t.Errorf("tie order = [%s %s], want [Q4 Q5]", hits[0].EntityID, hits[1].EntityID)
	}
}

func TestSearchArticleText(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	hits, err := store.SearchArticleText(context.Background(), "capital of France", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].EntityID != "Q1" {
		t.Fatalf("article search hits = %+v, want Q1 first", hits)
	}
	if hits[0].Score <= 0 {
		t.Errorf("top hit score = %f, want positive relevance", hits[0].Score)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	hits, err := store.SearchEntityText(context.Background(), "   ", 5)
	if err != nil {
		t.Fatal(err)
	}
	if hits != nil {
		t.Errorf("blank query hits = %+v, want none", hits)
	}
}

func TestSearchQuotedQuery(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	// Quote characters must not reach the match parser as syntax.
	if _, err := store.SearchEntityText(context.Background(), `"Paris" AND`, 5); err != nil {
		t.Errorf("quoted query failed: %v", err)
	}
}

func TestArticleFor(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)
	ctx := context.Background()

	id, err := store.ArticleFor(ctx, "Q1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "A100" {
		t.Errorf("article id = %s, want A100", id)
	}

	_, err = store.ArticleFor(ctx, "Q2")
	if !errors.Is(err, ErrNoArticle) {
		t.Errorf("entity without article error = %v, want ErrNoArticle", err)
	}

	_, err = store.ArticleFor(ctx, "Q99")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown entity error = %v, want ErrNotFound", err)
	}
}

func TestEdges(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)
	ctx := context.Background()

	if err := store.AddEdge(ctx, "shares_border_with", "Q3", "Q1"); err != nil {
		t.Fatal(err)
	}

	from, err := store.EdgesFrom(ctx, "Q1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(from) != 1 || from[0] != "Q3" {
		t.Errorf("EdgesFrom(Q1) = %v, want [Q3]", from)
	}

	filtered, err := store.EdgesFrom(ctx, "Q1", "shares_border_with")
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 0 {
		t.Errorf("EdgesFrom(Q1, shares_border_with) = %v, want none", filtered)
	}

	to, err := store.EdgesTo(ctx, "Q1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(to) != 1 || to[0] != "Q3" {
		t.Errorf("EdgesTo(Q1) = %v, want [Q3]", to)
	}
}

func TestResolveAliasExact(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)
	ctx := context.Background()

	// "Paris" names both Q1 and, less often, Q3.
	if err := store.AddAlias(ctx, "Paris", "Q3", 1); err != nil {
		t.Fatal(err)
	}

	matches, err := store.ResolveAliasExact(ctx, "Paris")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].EntityID != "Q1" || matches[0].Count != 10 {
		t.Errorf("first match = %+v, want Q1 with count 10", matches[0])
	}
	if matches[1].EntityID != "Q3" || matches[1].Count != 1 {
		t.Errorf("second match = %+v, want Q3 with count 1", matches[1])
	}
}

func TestResolveAliasExactUnknown(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	matches, err := store.ResolveAliasExact(context.Background(), "Atlantis")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("matches for unknown alias = %+v, want none", matches)
	}
}

func TestResolveAliasFuzzy(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	matches, err := store.ResolveAliasFuzzy(context.Background(), "Londn", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no fuzzy matches for misspelled alias")
	}
	if matches[0].Alias != "London" || matches[0].Distance != 1 {
		t.Errorf("best match = %+v, want London at distance 1", matches[0])
	}
}

func TestResolveAliasFuzzyDistanceBound(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	// "Lnd" is three edits from "London"; a bound of 2 excludes it.
	matches, err := store.ResolveAliasFuzzy(context.Background(), "Lnd", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Distance > 2 {
			t.Errorf("match %+v exceeds the distance bound", m)
		}
	}
}

func TestResolveAliasFuzzyCaseInsensitive(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	matches, err := store.ResolveAliasFuzzy(context.Background(), "LONDON", 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Alias != "London" || matches[0].Distance != 0 {
		t.Errorf("matches = %+v, want London at distance 0", matches)
	}
}

func TestResolveAliasFuzzyMultiByte(t *testing.T) {
	store := testSetup(t)
	ctx := context.Background()

	err := store.PutEntities(ctx, []types.EntityRecord{
		{ID: "Q649", Name: "Moscow"},
		{ID: "Q1490", Name: "Tokyo"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SignalEntitiesComplete(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.AddAlias(ctx, "Москва", "Q649", 5); err != nil {
		t.Fatal(err)
	}
	if err := store.AddAlias(ctx, "東京", "Q1490", 3); err != nil {
		t.Fatal(err)
	}
	if err := store.Finalize(ctx); err != nil {
		t.Fatal(err)
	}

	matches, err := store.ResolveAliasFuzzy(ctx, "Москва", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Alias != "Москва" || matches[0].Distance != 0 {
		t.Errorf("matches = %+v, want Москва at distance 0", matches)
	}

	// One deleted character.
	matches, err = store.ResolveAliasFuzzy(ctx, "Мосва", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Alias != "Москва" || matches[0].Distance != 1 {
		t.Errorf("matches = %+v, want Москва at distance 1", matches)
	}

	// Below one trigram of characters; resolved by the full-scan fallback.
	matches, err = store.ResolveAliasFuzzy(ctx, "東京", 1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Alias != "東京" || matches[0].Distance != 0 {
		t.Errorf("matches = %+v, want 東京 at distance 0", matches)
	}

	candidates, err := store.ResolveAlias(ctx, "Мосва", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) == 0 || candidates[0].EntityID != "Q649" {
		t.Errorf("candidates = %+v, want Q649 first", candidates)
	}
}

func TestResolveAlias(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	// "Pariss" is not a stored alias; fuzzy recovery reaches "Paris".
	candidates, err := store.ResolveAlias(context.Background(), "Pariss", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) == 0 {
		t.Fatal("no candidates for misspelled mention")
	}
	c := candidates[0]
	if c.EntityID != "Q1" || c.Alias != "Paris" || c.Distance != 1 {
		t.Errorf("best candidate = %+v, want Q1 via Paris at distance 1", c)
	}
}

func TestResolveAliasAggregatesPerEntity(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	// "Paree" matches exactly and "Paris" fuzzily, both pointing at Q1;
	// the candidate keeps the closest alias and sums counts.
	candidates, err := store.ResolveAlias(context.Background(), "Paree", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %+v, want exactly one entity", candidates)
	}
	c := candidates[0]
	if c.EntityID != "Q1" || c.Alias != "Paree" || c.Distance != 0 {
		t.Errorf("candidate = %+v, want Q1 via exact Paree", c)
	}
	if c.Count != 12 {
		t.Errorf("aggregated count = %d, want 12", c.Count)
	}
}

func TestExportRoundTrip(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)
	ctx := context.Background()

	var jsonBuf bytes.Buffer
	if err := store.ExportJSON(ctx, &jsonBuf); err != nil {
		t.Fatal(err)
	}
	var fromJSON []ExportEntry
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatal(err)
	}

	var yamlBuf bytes.Buffer
	if err := store.ExportYAML(ctx, &yamlBuf); err != nil {
		t.Fatal(err)
	}
	var fromYAML []ExportEntry
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatal(err)
	}

	for name, entries := range map[string][]ExportEntry{"json": fromJSON, "yaml": fromYAML} {
		if len(entries) != 3 {
			t.Fatalf("%s entries = %d, want 3", name, len(entries))
		}
		// Load order is preserved.
		if entries[0].ID != "Q1" || entries[1].ID != "Q2" || entries[2].ID != "Q3" {
			t.Errorf("%s entry order = [%s %s %s], want [Q1 Q2 Q3]",
				name, entries[0].ID, entries[1].ID, entries[2].ID)
		}
		q1 := entries[0]
		if q1.Name != "Paris" || q1.ArticleID != "A100" {
			t.Errorf("%s Q1 entry = %+v", name, q1)
		}
		if len(q1.Aliases) != 3 || q1.Aliases[0].Alias != "Paris" || q1.Aliases[0].Count != 10 {
			t.Errorf("%s Q1 aliases = %+v, want Paris first with count 10", name, q1.Aliases)
		}
	}
}

func TestExportBeforeReadyRejected(t *testing.T) {
	store := testSetup(t)

	var buf bytes.Buffer
	err := store.ExportYAML(context.Background(), &buf)
	if !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("export on empty store error = %v, want ErrPhaseViolation", err)
	}
}

func TestQueryCanceledContext(t *testing.T) {
	store := testSetup(t)
	loadSample(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.SearchEntityText(ctx, "Paris", 5); err == nil {
		t.Error("canceled context should abort the query")
	}
}
