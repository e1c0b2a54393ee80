package schema

// DDL 建表脚本，所有语句均为 if not exists，可重复执行
// sqlite与postgres通用；user为保留字，因此需要加引号
const DDL = `
CREATE TABLE IF NOT EXISTS site (
    site_slug  TEXT PRIMARY KEY,
    site_id    BIGINT NOT NULL UNIQUE,
    site_descr TEXT NOT NULL,
    site_url   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS "user" (
    user_id      BIGINT PRIMARY KEY,
    user_slug    TEXT NOT NULL,
    user_name    TEXT NOT NULL,
    user_since   BIGINT NOT NULL,
    account_type TEXT NOT NULL,
    karma        BIGINT NOT NULL,
    fetched_at   BIGINT NOT NULL,
    real_name    TEXT,
    gender       TEXT,
    birthday     BIGINT,
    location     TEXT,
    website      TEXT
);

CREATE TABLE IF NOT EXISTS page (
    page_id   BIGINT PRIMARY KEY,
    site_slug TEXT NOT NULL REFERENCES site(site_slug),
    page_slug TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_site_slug ON page(site_slug, page_slug);

CREATE TABLE IF NOT EXISTS page_metadata (
    page_id            BIGINT PRIMARY KEY REFERENCES page(page_id),
    sitemap_updated_at BIGINT NOT NULL,
    title              TEXT NOT NULL,
    locked             BOOLEAN NOT NULL,
    tags               TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS page_revision (
    revision_id     BIGINT PRIMARY KEY,
    revision_number BIGINT NOT NULL,
    page_id         BIGINT NOT NULL REFERENCES page(page_id),
    user_id         BIGINT NOT NULL REFERENCES "user"(user_id),
    created_at      BIGINT NOT NULL,
    flags           TEXT NOT NULL,
    comments        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_page_revision_page ON page_revision(page_id, revision_number);

CREATE TABLE IF NOT EXISTS page_vote (
    page_id BIGINT NOT NULL REFERENCES page(page_id),
    user_id BIGINT NOT NULL REFERENCES "user"(user_id),
    value   INTEGER NOT NULL,
    PRIMARY KEY (page_id, user_id)
);
`

// Tables 按依赖顺序排列，删除时需要逆序
var Tables = []string{"site", "user", "page", "page_metadata", "page_revision", "page_vote"}
