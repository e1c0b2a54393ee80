package dbstorage

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/andrewyi/wikiimporter/src/dbstorage/schema"
	"github.com/andrewyi/wikiimporter/src/entity"
	"github.com/andrewyi/wikiimporter/src/enum"
)

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64 { return &i }

var (
	testSite = entity.Site{Slug: "scp-wiki", ID: 1, Descr: "SCP Foundation", URL: "http://scp-wiki.net"}
	testPage = entity.Page{PageID: 100, SiteSlug: "scp-wiki", PageSlug: "scp-001"}
)

func testUser(id int64, name string) entity.User {
	return entity.User{
		Username:    "user-" + name,
		FullName:    name,
		UserID:      id,
		UserSince:   1_200_000_000,
		AccountType: "free",
		Activity:    3,
		FetchedAt:   1_700_000_000_123,
		Birthday:    intPtr(631_152_000_000),
		Location:    strPtr("Site-19"),
	}
}

func mustCount(t *testing.T, s *SimpleDBStorage, bean interface{}) int64 {
	t.Helper()
	n, err := s.Count(bean)
	if err != nil {
		t.Fatalf("Count(%T): %v", bean, err)
	}
	return n
}

func TestUpsertSiteOverwritesMutableFields(t *testing.T) {
	s := openTestStorage(t)

	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	updated := testSite
	updated.Descr = "SCP Foundation (EN)"
	updated.URL = "https://scp-wiki.wikidot.com"
	if err := s.UpsertSite(updated); err != nil {
		t.Fatal(err)
	}

	if n := mustCount(t, s, &schema.Site{}); n != 1 {
		t.Fatalf("site count = %d, want 1", n)
	}
	got, err := s.GetSite("scp-wiki")
	if err != nil {
		t.Fatal(err)
	}
	if got.Descr != updated.Descr || got.URL != updated.URL || got.ID != 1 {
		t.Fatalf("site = %+v, want descr %q url %q", got, updated.Descr, updated.URL)
	}
}

func TestUpsertSiteKeepsIdentity(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}

	// 相同id不同slug：slug不会被修改
	renamed := testSite
	renamed.Slug = "scp-wiki-renamed"
	if err := s.UpsertSite(renamed); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSite("scp-wiki"); err != nil {
		t.Fatalf("original slug lost: %v", err)
	}

	// 相同slug不同id：违反唯一性
	other := testSite
	other.ID = 2
	err := s.UpsertSite(other)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
}

func TestUpsertUserFirstWriteWins(t *testing.T) {
	s := openTestStorage(t)

	first := testUser(55, "Foo Bar")
	if err := s.UpsertUser(first); err != nil {
		t.Fatal(err)
	}
	second := testUser(55, "Changed Name")
	second.Activity = 99
	if err := s.UpsertUser(second); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(first); err != nil {
		t.Fatal(err)
	}

	if n := mustCount(t, s, &schema.User{}); n != 1 {
		t.Fatalf("user count = %d, want 1", n)
	}
	got, err := s.GetUser(55)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Foo Bar" || got.Slug != "user-Foo Bar" || got.Karma != 3 {
		t.Fatalf("user = %+v, want first payload", got)
	}
	if got.FetchedAt != 1_700_000_000 {
		t.Fatalf("fetched_at = %d, want 1700000000", got.FetchedAt)
	}
	if got.Birthday == nil || *got.Birthday != 631_152_000 {
		t.Fatalf("birthday = %v, want 631152000", got.Birthday)
	}
	if got.Location == nil || *got.Location != "Site-19" {
		t.Fatalf("location = %v, want Site-19", got.Location)
	}
	if got.RealName != nil || got.Gender != nil || got.Website != nil {
		t.Fatalf("optional fields = %v %v %v, want nil", got.RealName, got.Gender, got.Website)
	}
}

func TestUpsertUserMalformed(t *testing.T) {
	s := openTestStorage(t)

	err := s.UpsertUser(entity.User{Username: "nobody"})
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
	var we *WriteError
	if !errors.As(err, &we) || we.Entity != enum.EntityUser {
		t.Fatalf("err = %#v, want *WriteError for user", err)
	}
	var re *entity.RecordError
	if !errors.As(err, &re) || re.Field != "user_id" {
		t.Fatalf("err = %v, want missing user_id", err)
	}
}

func TestUpsertMissingRequiredText(t *testing.T) {
	s := openTestStorage(t)

	site := testSite
	site.URL = ""
	user := testUser(5, "x")
	user.FullName = ""
	for _, c := range []struct {
		name  string
		err   error
		field string
	}{
		{"site url", s.UpsertSite(site), "url"},
		{"user full name", s.UpsertUser(user), "full_name"},
	} {
		if !errors.Is(c.err, ErrMalformedRecord) {
			t.Fatalf("%s: err = %v, want ErrMalformedRecord", c.name, c.err)
		}
		var re *entity.RecordError
		if !errors.As(c.err, &re) || re.Field != c.field {
			t.Fatalf("%s: err = %v, want missing %s", c.name, c.err, c.field)
		}
	}
	if n := mustCount(t, s, &schema.Site{}); n != 0 {
		t.Fatalf("site count = %d, want 0", n)
	}
	if n := mustCount(t, s, &schema.User{}); n != 0 {
		t.Fatalf("user count = %d, want 0", n)
	}
}

func TestUpsertUserBlockReplay(t *testing.T) {
	s := openTestStorage(t)

	block := entity.UserBlock{
		"1": testUser(1, "Alpha"),
		"2": testUser(2, "Beta"),
		"3": testUser(3, "Gamma"),
	}
	for i := 0; i < 2; i++ {
		if err := s.UpsertUserBlock(block, "users-0.json"); err != nil {
			t.Fatalf("UpsertUserBlock #%d: %v", i, err)
		}
	}
	if n := mustCount(t, s, &schema.User{}); n != 3 {
		t.Fatalf("user count = %d, want 3", n)
	}
	got, err := s.GetUser(2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Beta" {
		t.Fatalf("user 2 name = %q, want Beta", got.Name)
	}
}

func TestUpsertUserBlockAtomic(t *testing.T) {
	s := openTestStorage(t)

	block := entity.UserBlock{
		"1": testUser(1, "Alpha"),
		"x": {Username: "broken"},
	}
	if err := s.UpsertUserBlock(block, "users-1.json"); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
	if n := mustCount(t, s, &schema.User{}); n != 0 {
		t.Fatalf("user count = %d, want 0 after failed block", n)
	}
}

func TestUpsertPageUnknownSite(t *testing.T) {
	s := openTestStorage(t)

	err := s.UpsertPage(testPage)
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
	var we *WriteError
	if !errors.As(err, &we) || we.Entity != enum.EntityPage || we.Identity != testPage.Identity() {
		t.Fatalf("err = %#v, want *WriteError for page %s", err, testPage.Identity())
	}
}

func TestUpsertPageInsertOrIgnore(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	moved := testPage
	moved.PageSlug = "scp-001-ex"
	if err := s.UpsertPage(moved); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPage(100)
	if err != nil {
		t.Fatal(err)
	}
	if got.Slug != "scp-001" {
		t.Fatalf("page slug = %q, want scp-001", got.Slug)
	}
}

func TestUpsertPageMetadata(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}

	metadata := entity.PageMetadata{
		PageID:        100,
		SitemapUpdate: 1_650_000_000_999,
		Title:         "SCP-001",
		IsLocked:      true,
		Tags:          []string{"scp", "keter"},
	}
	if err := s.UpsertPageMetadata(metadata); err != nil {
		t.Fatal(err)
	}
	changed := metadata
	changed.Title = "SCP-001 (edited)"
	changed.IsLocked = false
	if err := s.UpsertPageMetadata(changed); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetPageMetadata(100)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "SCP-001" || !got.Locked || got.SitemapUpdatedAt != 1_650_000_000 {
		t.Fatalf("metadata = %+v, want first payload", got)
	}
	var tags []string
	if err := json.Unmarshal([]byte(got.Tags), &tags); err != nil {
		t.Fatalf("tags %q: %v", got.Tags, err)
	}
	if len(tags) != 2 || tags[0] != "scp" || tags[1] != "keter" {
		t.Fatalf("tags = %v, want [scp keter]", tags)
	}
}

func TestUpsertPageMetadataNilTags(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPageMetadata(entity.PageMetadata{PageID: 100, Title: "SCP-001"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPageMetadata(100)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags != "[]" {
		t.Fatalf("tags = %q, want []", got.Tags)
	}
}

func TestUpsertPageRevisionInsertOrIgnore(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(testUser(55, "Foo Bar")); err != nil {
		t.Fatal(err)
	}

	revision := entity.PageRevision{
		GlobalRevision: 9000,
		Revision:       0,
		PageID:         100,
		Author:         55,
		Stamp:          1_400_000_000,
		Flags:          "N",
		Commentary:     "first",
	}
	for i := 0; i < 2; i++ {
		if err := s.UpsertPageRevision(revision); err != nil {
			t.Fatalf("UpsertPageRevision #%d: %v", i, err)
		}
	}
	if n := mustCount(t, s, &schema.PageRevision{}); n != 1 {
		t.Fatalf("revision count = %d, want 1", n)
	}
	got, err := s.GetPageRevision(9000)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != 55 || got.CreatedAt != 1_400_000_000 || got.Comments != "first" || got.Flags != "N" {
		t.Fatalf("revision = %+v", got)
	}

	// 作者不存在
	orphan := revision
	orphan.GlobalRevision = 9001
	orphan.Author = 404
	if err := s.UpsertPageRevision(orphan); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
}

func TestUpsertPageVoteLastWriteWins(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(testUser(55, "Foo Bar")); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertPageVote(entity.PageVote{PageID: 100, UserID: 55, Value: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPageVote(entity.PageVote{PageID: 100, UserID: 55, Value: -1}); err != nil {
		t.Fatal(err)
	}

	if n := mustCount(t, s, &schema.PageVote{}); n != 1 {
		t.Fatalf("vote count = %d, want 1", n)
	}
	got, err := s.GetPageVote(100, 55)
	if err != nil {
		t.Fatal(err)
	}
	if got.Value != -1 {
		t.Fatalf("vote value = %d, want -1", got.Value)
	}
}

func TestUpsertPageVoteUnknownUser(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	err := s.UpsertPageVote(entity.PageVote{PageID: 100, UserID: 77, Value: 1})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
}

func TestSitePageVoteScenario(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertUser(testUser(55, "Foo Bar")); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPage(testPage); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPageVote(entity.PageVote{PageID: 100, UserID: 55, Value: 1}); err != nil {
		t.Fatal(err)
	}

	for bean, want := range map[interface{}]int64{
		&schema.Site{}:     1,
		&schema.Page{}:     1,
		&schema.PageVote{}: 1,
	} {
		if n := mustCount(t, s, bean); n != want {
			t.Fatalf("Count(%T) = %d, want %d", bean, n, want)
		}
	}
}

func TestUpsertPageDocumentRollsBack(t *testing.T) {
	s := openTestStorage(t)
	if err := s.UpsertSite(testSite); err != nil {
		t.Fatal(err)
	}

	doc := &entity.PageDocument{
		Page:     testPage,
		Metadata: entity.PageMetadata{PageID: 100, Title: "SCP-001", Tags: []string{}},
		Votes:    []entity.PageVote{{PageID: 100, UserID: 404, Value: 1}},
	}
	if err := s.UpsertPageDocument(doc); !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
	if n := mustCount(t, s, &schema.Page{}); n != 0 {
		t.Fatalf("page count = %d, want 0 after rollback", n)
	}
}
