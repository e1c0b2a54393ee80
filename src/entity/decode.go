package entity

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/andrewyi/wikiimporter/src/enum"
)

var (
	siteFields     = []string{"slug", "id", "descr", "url"}
	userFields     = []string{"username", "full_name", "user_id", "wikidot_user_since", "account_type", "activity", "fetched_at"}
	pageDocFields  = []string{"page_id", "page_slug", "sitemap_update", "title", "is_locked", "tags"}
	revisionFields = []string{"global_revision", "revision", "author", "stamp", "flags", "commentary"}
	nullLiteral    = []byte("null")
	trueLiteral    = []byte("true")
	falseLiteral   = []byte("false")
)

// 检查必填字段存在且不为null，然后解码到out
func decodeRecord(entity string, raw json.RawMessage, required []string, out interface{}) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &RecordError{Entity: entity, Field: "(record)", Reason: err.Error()}
	}
	for _, f := range required {
		v, ok := fields[f]
		if !ok || bytes.Equal(bytes.TrimSpace(v), nullLiteral) {
			return missing(entity, f)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RecordError{Entity: entity, Field: "(record)", Reason: err.Error()}
	}
	return nil
}

// sites.json: [ {slug, id, descr, url}, ... ]
func DecodeSites(data []byte) ([]Site, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &RecordError{Entity: enum.EntitySite, Field: "(list)", Reason: err.Error()}
	}
	sites := make([]Site, 0, len(raws))
	for _, raw := range raws {
		var s Site
		if err := decodeRecord(enum.EntitySite, raw, siteFields, &s); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, nil
}

func DecodeUserBlock(data []byte) (UserBlock, error) {
	var raws map[string]json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &RecordError{Entity: enum.EntityUser, Field: "(block)", Reason: err.Error()}
	}
	block := make(UserBlock, len(raws))
	for k, raw := range raws {
		var u User
		if err := decodeRecord(enum.EntityUser, raw, userFields, &u); err != nil {
			return nil, err
		}
		block[k] = u
	}
	return block, nil
}

type pageDocumentJSON struct {
	PageID        int64             `json:"page_id"`
	PageSlug      string            `json:"page_slug"`
	SitemapUpdate int64             `json:"sitemap_update"`
	Title         string            `json:"title"`
	IsLocked      bool              `json:"is_locked"`
	Tags          []string          `json:"tags"`
	Revisions     []json.RawMessage `json:"revisions"`
	Votes         []json.RawMessage `json:"votes"`
}

// DecodePageDocument 解码一个页面文件，站点slug来自文件所在目录
func DecodePageDocument(siteSlug string, data []byte) (*PageDocument, error) {
	var doc pageDocumentJSON
	if err := decodeRecord(enum.EntityPage, data, pageDocFields, &doc); err != nil {
		return nil, err
	}

	out := &PageDocument{
		Page: Page{
			PageID:   doc.PageID,
			SiteSlug: siteSlug,
			PageSlug: doc.PageSlug,
		},
		Metadata: PageMetadata{
			PageID:        doc.PageID,
			SitemapUpdate: doc.SitemapUpdate,
			Title:         doc.Title,
			IsLocked:      doc.IsLocked,
			Tags:          doc.Tags,
		},
	}
	if out.Metadata.Tags == nil {
		out.Metadata.Tags = []string{}
	}

	for _, raw := range doc.Revisions {
		var r PageRevision
		if err := decodeRecord(enum.EntityPageRevision, raw, revisionFields, &r); err != nil {
			return nil, err
		}
		r.PageID = doc.PageID
		out.Revisions = append(out.Revisions, r)
	}

	for i, raw := range doc.Votes {
		v, err := decodeVote(doc.PageID, raw)
		if err != nil {
			return nil, fmt.Errorf("vote %d: %w", i, err)
		}
		out.Votes = append(out.Votes, v)
	}

	return out, nil
}

// 投票为 [user_id, value]，value可以是整数，或者布尔值（true => +1, false => -1）
func decodeVote(pageID int64, raw json.RawMessage) (PageVote, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return PageVote{}, &RecordError{Entity: enum.EntityPageVote, Field: "(vote)", Reason: err.Error()}
	}
	if len(pair) != 2 {
		return PageVote{}, &RecordError{Entity: enum.EntityPageVote, Field: "(vote)", Reason: "is not a [user_id, value] pair"}
	}

	vote := PageVote{PageID: pageID}
	if err := json.Unmarshal(pair[0], &vote.UserID); err != nil {
		return PageVote{}, &RecordError{Entity: enum.EntityPageVote, Field: "user_id", Reason: err.Error()}
	}

	value := bytes.TrimSpace(pair[1])
	switch {
	case bytes.Equal(value, trueLiteral):
		vote.Value = 1
	case bytes.Equal(value, falseLiteral):
		vote.Value = -1
	default:
		if err := json.Unmarshal(value, &vote.Value); err != nil {
			return PageVote{}, &RecordError{Entity: enum.EntityPageVote, Field: "value", Reason: err.Error()}
		}
	}
	return vote, nil
}
