// 数据库表，字段与DDL保持一致，仅用于读取
// 写入统一走带冲突策略的原生sql（见dbstorage），xorm的Insert无法表达on conflict
package schema

type Site struct {
	Slug  string `xorm:"text pk 'site_slug'"`
	ID    int64  `xorm:"bigint notnull unique 'site_id'"`
	Descr string `xorm:"text notnull 'site_descr'"`
	URL   string `xorm:"text notnull 'site_url'"`
}

func (s *Site) TableName() string {
	return "site"
}

type User struct {
	ID          int64   `xorm:"bigint pk 'user_id'"`
	Slug        string  `xorm:"text notnull 'user_slug'"`
	Name        string  `xorm:"text notnull 'user_name'"`
	Since       int64   `xorm:"bigint notnull 'user_since'"`
	AccountType string  `xorm:"text notnull 'account_type'"`
	Karma       int64   `xorm:"bigint notnull 'karma'"`
	FetchedAt   int64   `xorm:"bigint notnull 'fetched_at'"`
	RealName    *string `xorm:"text 'real_name'"`
	Gender      *string `xorm:"text 'gender'"`
	Birthday    *int64  `xorm:"bigint 'birthday'"`
	Location    *string `xorm:"text 'location'"`
	Website     *string `xorm:"text 'website'"`
}

func (u *User) TableName() string {
	return "user"
}

type Page struct {
	ID       int64  `xorm:"bigint pk 'page_id'"`
	SiteSlug string `xorm:"text notnull 'site_slug'"`
	Slug     string `xorm:"text notnull 'page_slug'"`
}

func (p *Page) TableName() string {
	return "page"
}

type PageMetadata struct {
	PageID           int64  `xorm:"bigint pk 'page_id'"`
	SitemapUpdatedAt int64  `xorm:"bigint notnull 'sitemap_updated_at'"`
	Title            string `xorm:"text notnull 'title'"`
	Locked           bool   `xorm:"bool notnull 'locked'"`
	Tags             string `xorm:"text notnull 'tags'"` // json数组
}

func (m *PageMetadata) TableName() string {
	return "page_metadata"
}

type PageRevision struct {
	ID        int64  `xorm:"bigint pk 'revision_id'"`
	Number    int64  `xorm:"bigint notnull 'revision_number'"`
	PageID    int64  `xorm:"bigint notnull 'page_id'"`
	UserID    int64  `xorm:"bigint notnull 'user_id'"`
	CreatedAt int64  `xorm:"bigint notnull 'created_at'"`
	Flags     string `xorm:"text notnull 'flags'"`
	Comments  string `xorm:"text notnull 'comments'"`
}

func (r *PageRevision) TableName() string {
	return "page_revision"
}

type PageVote struct {
	PageID int64 `xorm:"bigint pk 'page_id'"`
	UserID int64 `xorm:"bigint pk 'user_id'"`
	Value  int64 `xorm:"int notnull 'value'"`
}

func (v *PageVote) TableName() string {
	return "page_vote"
}
