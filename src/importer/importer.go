// 从抓取结果目录导入数据
// 目录结构：
//   <dir>/sites.json
//   <dir>/<site_slug>/users/*.json   用户block
//   <dir>/<site_slug>/pages/*.json   页面（含metadata、revision、投票）
// 导入顺序：site -> 全部用户 -> 页面，保证外键引用的记录已经存在
// 页面文件并发解码，写入按文件名顺序串行执行
package importer

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/andrewyi/wikiimporter/src/dbstorage"
	"github.com/andrewyi/wikiimporter/src/entity"
	"github.com/andrewyi/wikiimporter/src/enum"
)

const (
	SitesFile = "sites.json"
	UsersDir  = "users"
	PagesDir  = "pages"
)

type Stats struct {
	Sites      int
	UserBlocks int
	Users      int
	Pages      int
	Revisions  int
	Votes      int
}

type Importer struct {
	logger  *log.Logger
	dir     string
	workers uint32
	db      *dbstorage.SimpleDBStorage
}

func NewImporter(logger *log.Logger, dir string, workers uint32, db *dbstorage.SimpleDBStorage) *Importer {
	if workers == 0 {
		workers = enum.DefaultDecodeWorkers
	}
	return &Importer{
		logger:  logger,
		dir:     dir,
		workers: workers,
		db:      db,
	}
}

func (i *Importer) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	sites, err := i.importSites(ctx, &stats)
	if err != nil {
		return stats, err
	}

	// 用户在各站点之间共享，必须先于任何页面写入
	for _, site := range sites {
		if err := i.importUsers(ctx, site.Slug, &stats); err != nil {
			return stats, err
		}
	}

	for _, site := range sites {
		if err := i.importPages(ctx, site.Slug, &stats); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (i *Importer) importSites(ctx context.Context, stats *Stats) ([]entity.Site, error) {
	path := filepath.Join(i.dir, SitesFile)
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to read %s, err: %w", path, err)
	}
	sites, err := entity.DecodeSites(data)
	if err != nil {
		return nil, fmt.Errorf("fail to decode %s, err: %w", path, err)
	}

	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := i.db.UpsertSite(site); err != nil {
			return nil, err
		}
		stats.Sites++
	}
	return sites, nil
}

func (i *Importer) importUsers(ctx context.Context, siteSlug string, stats *Stats) error {
	files, err := listJSON(filepath.Join(i.dir, siteSlug, UsersDir))
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := ioutil.ReadFile(f)
		if err != nil {
			return fmt.Errorf("fail to read %s, err: %w", f, err)
		}
		block, err := entity.DecodeUserBlock(data)
		if err != nil {
			return fmt.Errorf("fail to decode %s, err: %w", f, err)
		}
		if err := i.db.UpsertUserBlock(block, i.source(f)); err != nil {
			return fmt.Errorf("fail to import %s, err: %w", f, err)
		}
		stats.UserBlocks++
		stats.Users += len(block)
	}
	return nil
}

func (i *Importer) importPages(ctx context.Context, siteSlug string, stats *Stats) error {
	files, err := listJSON(filepath.Join(i.dir, siteSlug, PagesDir))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	docs := make([]*entity.PageDocument, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(i.workers))
	for idx, f := range files {
		idx, f := idx, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := ioutil.ReadFile(f)
			if err != nil {
				return fmt.Errorf("fail to read %s, err: %w", f, err)
			}
			doc, err := entity.DecodePageDocument(siteSlug, data)
			if err != nil {
				return fmt.Errorf("fail to decode %s, err: %w", f, err)
			}
			docs[idx] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	i.logger.WithFields(log.Fields{
		"site_slug": siteSlug,
		"pages":     len(docs),
	}).Info("decoded page files")

	for idx, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := i.db.UpsertPageDocument(doc); err != nil {
			return fmt.Errorf("fail to import %s, err: %w", files[idx], err)
		}
		stats.Pages++
		stats.Revisions += len(doc.Revisions)
		stats.Votes += len(doc.Votes)
	}
	return nil
}

// 相对于导入目录的路径，用于日志
func (i *Importer) source(path string) string {
	if rel, err := filepath.Rel(i.dir, path); err == nil {
		return rel
	}
	return path
}

// 目录不存在时返回空
func listJSON(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
