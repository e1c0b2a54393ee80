// 导入层的输入记录，字段名与抓取结果的json字段保持一致
// 必填字段使用值类型，可选字段使用指针（nil即缺失）
package entity

import (
	"errors"
	"fmt"

	"github.com/andrewyi/wikiimporter/src/enum"
)

var ErrMalformedRecord = errors.New("malformed record")

// RecordError 描述被拒绝的输入记录，errors.Is(err, ErrMalformedRecord) 成立
type RecordError struct {
	Entity string
	Field  string
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed %s record: field %s %s", e.Entity, e.Field, e.Reason)
}

func (e *RecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func missing(entity, field string) error {
	return &RecordError{Entity: entity, Field: field, Reason: "is missing"}
}

type Site struct {
	Slug  string `json:"slug"`
	ID    int64  `json:"id"`
	Descr string `json:"descr"`
	URL   string `json:"url"`
}

func (s *Site) Validate() error {
	if s.Slug == "" {
		return missing(enum.EntitySite, "slug")
	}
	if s.ID == 0 {
		return missing(enum.EntitySite, "id")
	}
	if s.Descr == "" {
		return missing(enum.EntitySite, "descr")
	}
	if s.URL == "" {
		return missing(enum.EntitySite, "url")
	}
	return nil
}

func (s *Site) Identity() string {
	return fmt.Sprintf("%s (%d)", s.Slug, s.ID)
}

type User struct {
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	UserID      int64  `json:"user_id"`
	UserSince   int64  `json:"wikidot_user_since"` // 秒
	AccountType string `json:"account_type"`
	Activity    int64  `json:"activity"`   // karma
	FetchedAt   int64  `json:"fetched_at"` // 毫秒

	RealName *string `json:"real_name"`
	Gender   *string `json:"gender"`
	Birthday *int64  `json:"birthday"` // 毫秒
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

func (u *User) Validate() error {
	if u.UserID == 0 {
		return missing(enum.EntityUser, "user_id")
	}
	if u.Username == "" {
		return missing(enum.EntityUser, "username")
	}
	if u.FullName == "" {
		return missing(enum.EntityUser, "full_name")
	}
	if u.AccountType == "" {
		return missing(enum.EntityUser, "account_type")
	}
	return nil
}

func (u *User) Identity() string {
	return fmt.Sprintf("%s (%d)", u.Username, u.UserID)
}

// UserBlock 一个文件中的全部用户，key为用户id字符串，导入时忽略
type UserBlock map[string]User

type Page struct {
	PageID   int64  `json:"page_id"`
	SiteSlug string `json:"site_slug"`
	PageSlug string `json:"page_slug"`
}

func (p *Page) Validate() error {
	if p.PageID == 0 {
		return missing(enum.EntityPage, "page_id")
	}
	if p.SiteSlug == "" {
		return missing(enum.EntityPage, "site_slug")
	}
	if p.PageSlug == "" {
		return missing(enum.EntityPage, "page_slug")
	}
	return nil
}

func (p *Page) Identity() string {
	return fmt.Sprintf("%s/%s (%d)", p.SiteSlug, p.PageSlug, p.PageID)
}

type PageMetadata struct {
	PageID        int64    `json:"page_id"`
	SitemapUpdate int64    `json:"sitemap_update"` // 毫秒
	Title         string   `json:"title"`
	IsLocked      bool     `json:"is_locked"`
	Tags          []string `json:"tags"`
}

func (m *PageMetadata) Validate() error {
	if m.PageID == 0 {
		return missing(enum.EntityPageMetadata, "page_id")
	}
	return nil
}

func (m *PageMetadata) Identity() string {
	return fmt.Sprintf("page %d", m.PageID)
}

type PageRevision struct {
	GlobalRevision int64  `json:"global_revision"`
	Revision       int64  `json:"revision"`
	PageID         int64  `json:"page_id"`
	Author         int64  `json:"author"`
	Stamp          int64  `json:"stamp"` // 秒
	Flags          string `json:"flags"`
	Commentary     string `json:"commentary"`
}

func (r *PageRevision) Validate() error {
	if r.GlobalRevision == 0 {
		return missing(enum.EntityPageRevision, "global_revision")
	}
	if r.PageID == 0 {
		return missing(enum.EntityPageRevision, "page_id")
	}
	return nil
}

func (r *PageRevision) Identity() string {
	return fmt.Sprintf("%d (page %d, rev %d)", r.GlobalRevision, r.PageID, r.Revision)
}

type PageVote struct {
	PageID int64 `json:"page_id"`
	UserID int64 `json:"user_id"`
	Value  int64 `json:"value"`
}

func (v *PageVote) Validate() error {
	if v.PageID == 0 {
		return missing(enum.EntityPageVote, "page_id")
	}
	if v.UserID == 0 {
		return missing(enum.EntityPageVote, "user_id")
	}
	return nil
}

func (v *PageVote) Identity() string {
	return fmt.Sprintf("page %d / user %d", v.PageID, v.UserID)
}

// PageDocument 一个页面文件的全部内容，导入时在同一事务中写入
type PageDocument struct {
	Page      Page
	Metadata  PageMetadata
	Revisions []PageRevision
	Votes     []PageVote
}
