package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/wikiimporter/src/config"
	"github.com/andrewyi/wikiimporter/src/dbstorage"
	"github.com/andrewyi/wikiimporter/src/importer"
	"github.com/andrewyi/wikiimporter/src/util"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	config *config.Config

	dbStorage *dbstorage.SimpleDBStorage
}

func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) initLog() {
	var logger = log.New()
	logger.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	if s.config.Log.Context {
		logger.SetReportCaller(true)
	}

	if logLevel, err := log.ParseLevel(s.config.Log.Level); err != nil {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(logLevel)
	}
	s.logger = logger
}

// 命令行参数优先于配置文件
func (s *Server) loadConfig(ctx *cli.Context) error {
	configPath := ctx.String("config")
	var cfg = &config.Config{}
	if err := util.ReadConfig(configPath, cfg); err != nil {
		return fmt.Errorf("fail to load config, err: %w", err)
	}
	if dir := ctx.String("dir"); dir != "" {
		cfg.Import.Dir = dir
	}
	if ctx.Bool("reset") {
		cfg.Database.Reset = true
	}
	s.config = cfg
	return nil
}

func (s *Server) Start(ctx *cli.Context) error {
	var err error

	if err = s.loadConfig(ctx); err != nil {
		return err
	}
	cfg := s.config

	s.initLog()

	dbStorage, err := dbstorage.NewSimpleDBStorage(cfg.Database.Driver, cfg.Database.URL, cfg.Database.Reset, s.logger)
	if err != nil {
		s.logger.WithError(err).WithField("driver", cfg.Database.Driver).Error("fail to create dbstorage handler")
		return err
	}
	s.dbStorage = dbStorage
	defer s.Stop()
	dbStorage.ShowSQL(cfg.Database.ShowSQL)

	if err = dbStorage.InitializeSchema(); err != nil {
		s.logger.WithError(err).Error("fail to initialize schema")
		return err
	}

	go s.wait()

	imp := importer.NewImporter(s.logger, cfg.Import.Dir, cfg.Import.DecodeWorkers, dbStorage)
	stats, err := imp.Run(s.ctx)
	if err != nil {
		s.logger.WithError(err).WithField("dir", cfg.Import.Dir).Error("import failed")
		return err
	}

	s.logger.WithFields(log.Fields{
		"sites":       stats.Sites,
		"user_blocks": stats.UserBlocks,
		"users":       stats.Users,
		"pages":       stats.Pages,
		"revisions":   stats.Revisions,
		"votes":       stats.Votes,
	}).Info("import finished")

	return nil
}

// 收到中断信号后取消导入，当前block结束后停止
func (s *Server) wait() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)
	select {
	case <-c:
		s.logger.Warn("interrupt signal, import gonna stop")
		s.cancel()
	case <-s.ctx.Done():
	}
}

func (s *Server) Stop() {
	s.cancel()
	if s.dbStorage != nil {
		if err := s.dbStorage.Close(); err != nil {
			s.logger.WithError(err).Warn("fail to close dbstorage")
		}
	}
}
