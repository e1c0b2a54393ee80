// 各实体的写入，冲突策略：
//   site          更新描述与url
//   user          忽略（以第一次写入为准）
//   page          忽略
//   page_metadata 忽略
//   page_revision 忽略，revision一经记录不会变化，重复导入保持幂等
//   page_vote     覆盖投票值
// 写入前不检查外键是否存在，由调用方保证导入顺序，违反时由数据库约束报错
package dbstorage

import (
	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/andrewyi/wikiimporter/src/entity"
	"github.com/andrewyi/wikiimporter/src/enum"
	"github.com/andrewyi/wikiimporter/src/util"
)

const (
	upsertSiteSQL = `INSERT INTO site (site_slug, site_id, site_descr, site_url)
VALUES (?, ?, ?, ?)
ON CONFLICT (site_id) DO UPDATE SET site_descr = excluded.site_descr, site_url = excluded.site_url`

	insertUserSQL = `INSERT INTO "user" (user_slug, user_name, user_id, user_since, account_type, karma,
fetched_at, real_name, gender, birthday, location, website)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO NOTHING`

	insertPageSQL = `INSERT INTO page (page_id, site_slug, page_slug)
VALUES (?, ?, ?)
ON CONFLICT (page_id) DO NOTHING`

	insertPageMetadataSQL = `INSERT INTO page_metadata (page_id, sitemap_updated_at, title, locked, tags)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (page_id) DO NOTHING`

	insertPageRevisionSQL = `INSERT INTO page_revision (revision_id, revision_number, page_id, user_id, created_at, flags, comments)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (revision_id) DO NOTHING`

	upsertPageVoteSQL = `INSERT INTO page_vote (page_id, user_id, value)
VALUES (?, ?, ?)
ON CONFLICT (page_id, user_id) DO UPDATE SET value = excluded.value`
)

func (t *Transaction) UpsertSite(site entity.Site) error {
	if err := site.Validate(); err != nil {
		return newWriteError(enum.EntitySite, site.Identity(), err)
	}

	t.logger.WithFields(log.Fields{
		"site_slug":  site.Slug,
		"site_id":    site.ID,
		"site_descr": site.Descr,
	}).Info("inserting site")

	if _, err := t.sess.Exec(upsertSiteSQL, site.Slug, site.ID, site.Descr, site.URL); err != nil {
		return newWriteError(enum.EntitySite, site.Identity(), err)
	}
	return nil
}

func (t *Transaction) UpsertUser(user entity.User) error {
	if err := user.Validate(); err != nil {
		return newWriteError(enum.EntityUser, user.Identity(), err)
	}

	t.logger.WithFields(log.Fields{
		"user_name": user.FullName,
		"user_slug": user.Username,
		"user_id":   user.UserID,
	}).Info("inserting user")

	_, err := t.sess.Exec(insertUserSQL,
		user.Username, // slug, e.g. foo-bar
		user.FullName, // name, e.g. Foo Bar
		user.UserID,
		user.UserSince,
		user.AccountType,
		user.Activity,
		util.MillisToSeconds(user.FetchedAt),
		user.RealName,
		user.Gender,
		util.ToSeconds(user.Birthday),
		user.Location,
		user.Website,
	)
	if err != nil {
		return newWriteError(enum.EntityUser, user.Identity(), err)
	}
	return nil
}

// UpsertUserBlock block的key为冗余的用户id字符串，直接忽略
func (t *Transaction) UpsertUserBlock(block entity.UserBlock, source string) error {
	t.logger.WithFields(log.Fields{
		"size":   len(block),
		"source": source,
	}).Info("found users in block")

	for _, user := range block {
		if err := t.UpsertUser(user); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) UpsertPage(page entity.Page) error {
	if err := page.Validate(); err != nil {
		return newWriteError(enum.EntityPage, page.Identity(), err)
	}

	t.logger.WithFields(log.Fields{
		"site_slug": page.SiteSlug,
		"page_slug": page.PageSlug,
		"page_id":   page.PageID,
	}).Info("inserting page")

	if _, err := t.sess.Exec(insertPageSQL, page.PageID, page.SiteSlug, page.PageSlug); err != nil {
		return newWriteError(enum.EntityPage, page.Identity(), err)
	}
	return nil
}

func (t *Transaction) UpsertPageMetadata(metadata entity.PageMetadata) error {
	if err := metadata.Validate(); err != nil {
		return newWriteError(enum.EntityPageMetadata, metadata.Identity(), err)
	}

	t.logger.WithField("page_id", metadata.PageID).Info("inserting page metadata")

	tags := metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsStr, err := json.Marshal(tags)
	if err != nil {
		return newWriteError(enum.EntityPageMetadata, metadata.Identity(), err)
	}

	_, err = t.sess.Exec(insertPageMetadataSQL,
		metadata.PageID,
		util.MillisToSeconds(metadata.SitemapUpdate),
		metadata.Title,
		metadata.IsLocked,
		string(tagsStr),
	)
	if err != nil {
		return newWriteError(enum.EntityPageMetadata, metadata.Identity(), err)
	}
	return nil
}

func (t *Transaction) UpsertPageRevision(revision entity.PageRevision) error {
	if err := revision.Validate(); err != nil {
		return newWriteError(enum.EntityPageRevision, revision.Identity(), err)
	}

	t.logger.WithFields(log.Fields{
		"revision_id":     revision.GlobalRevision,
		"revision_number": revision.Revision,
		"page_id":         revision.PageID,
	}).Info("inserting page revision")

	_, err := t.sess.Exec(insertPageRevisionSQL,
		revision.GlobalRevision,
		revision.Revision,
		revision.PageID,
		revision.Author,
		revision.Stamp,
		revision.Flags,
		revision.Commentary,
	)
	if err != nil {
		return newWriteError(enum.EntityPageRevision, revision.Identity(), err)
	}
	return nil
}

func (t *Transaction) UpsertPageVote(vote entity.PageVote) error {
	if err := vote.Validate(); err != nil {
		return newWriteError(enum.EntityPageVote, vote.Identity(), err)
	}

	t.logger.WithFields(log.Fields{
		"page_id": vote.PageID,
		"user_id": vote.UserID,
		"value":   vote.Value,
	}).Info("inserting page vote")

	if _, err := t.sess.Exec(upsertPageVoteSQL, vote.PageID, vote.UserID, vote.Value); err != nil {
		return newWriteError(enum.EntityPageVote, vote.Identity(), err)
	}
	return nil
}

// UpsertPageDocument 页面、元数据、revision、投票，依次写入
func (t *Transaction) UpsertPageDocument(doc *entity.PageDocument) error {
	if err := t.UpsertPage(doc.Page); err != nil {
		return err
	}
	if err := t.UpsertPageMetadata(doc.Metadata); err != nil {
		return err
	}
	for _, revision := range doc.Revisions {
		if err := t.UpsertPageRevision(revision); err != nil {
			return err
		}
	}
	for _, vote := range doc.Votes {
		if err := t.UpsertPageVote(vote); err != nil {
			return err
		}
	}
	return nil
}

// 以下为单条写入，每次调用对应一个独立事务

func (s *SimpleDBStorage) UpsertSite(site entity.Site) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertSite(site)
	})
}

func (s *SimpleDBStorage) UpsertUser(user entity.User) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertUser(user)
	})
}

// UpsertUserBlock 整个block在同一事务中写入，任意一条失败则全部回滚
func (s *SimpleDBStorage) UpsertUserBlock(block entity.UserBlock, source string) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertUserBlock(block, source)
	})
}

func (s *SimpleDBStorage) UpsertPage(page entity.Page) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertPage(page)
	})
}

func (s *SimpleDBStorage) UpsertPageMetadata(metadata entity.PageMetadata) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertPageMetadata(metadata)
	})
}

func (s *SimpleDBStorage) UpsertPageRevision(revision entity.PageRevision) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertPageRevision(revision)
	})
}

func (s *SimpleDBStorage) UpsertPageVote(vote entity.PageVote) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertPageVote(vote)
	})
}

func (s *SimpleDBStorage) UpsertPageDocument(doc *entity.PageDocument) error {
	return s.RunInTransaction(func(t *Transaction) error {
		return t.UpsertPageDocument(doc)
	})
}
