package enum

const (
	// 实体名称，用于日志字段与错误信息
	EntitySite         = "site"
	EntityUser         = "user"
	EntityPage         = "page"
	EntityPageMetadata = "page_metadata"
	EntityPageRevision = "page_revision"
	EntityPageVote     = "page_vote"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	DefaultDecodeWorkers = 4
)
