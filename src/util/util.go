package util

import (
	"strings"

	"github.com/spf13/viper"
)

func ReadConfig(filePath string, out interface{}) error {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // for nested structure
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("import.decode_workers", 4)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	if err := v.Unmarshal(out); err != nil {
		return err
	}

	return nil
}

// ToSeconds 将毫秒时间戳转换为秒，nil保持nil
// 负数按照go的整数除法向零截断，例如 -1500 => -1
func ToSeconds(millis *int64) *int64 {
	if millis == nil {
		return nil
	}
	secs := MillisToSeconds(*millis)
	return &secs
}

func MillisToSeconds(millis int64) int64 {
	return millis / 1000
}
