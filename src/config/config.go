package config

type Config struct {
	Log struct {
		Context bool   `mapstructure:"context"`
		Level   string `mapstructure:"level"`
	} `mapstructure:"log"`

	Database struct {
		// sqlite3 or postgres
		Driver  string `mapstructure:"driver"`
		URL     string `mapstructure:"url"`
		Reset   bool   `mapstructure:"reset"`
		ShowSQL bool   `mapstructure:"show_sql"`
	} `mapstructure:"database"`

	Import struct {
		Dir           string `mapstructure:"dir"`
		DecodeWorkers uint32 `mapstructure:"decode_workers"`
	} `mapstructure:"import"`
}
