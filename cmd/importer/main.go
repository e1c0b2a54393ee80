package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/andrewyi/wikiimporter/src/server"
)

func main() {

	app := cli.NewApp()

	app.Name = "importer"
	app.Version = "0.1.0"
	app.Description = "将wiki抓取结果导入关系数据库"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config,c",
			Usage: "配置文件",
			Value: "./config.yaml",
		},
		cli.StringFlag{
			Name:  "dir,d",
			Usage: "抓取结果目录，覆盖配置中的import.dir",
		},
		cli.BoolFlag{
			Name:  "reset",
			Usage: "导入前删除已有数据库",
		},
	}

	s := server.NewServer()
	app.Action = s.Start

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
