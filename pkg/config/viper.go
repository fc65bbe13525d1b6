// Package config initializes the application's configuration. It uses the
// Viper library to read settings from a config file and environment
// variables, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// InitConfig initializes the application's configuration using Viper. It
// sets defaults, defines search paths, and enables environment overrides.
// Called once at startup. An explicit config file path overrides the
// search paths.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/noticeingest/")
		viper.AddConfigPath("$HOME/.noticeingest")
	}

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.development", false)

	viper.SetDefault("source.index_url", "https://www.gist.ac.kr/kr/html/sub05/050209.html")
	viper.SetDefault("source.user_agent", "NoticeIngest/1.0 (+https://github.com/campusboard/notice-ingest)")
	viper.SetDefault("source.timeout", "10s")

	viper.SetDefault("ingest.interval", "10m")
	viper.SetDefault("ingest.timezone", "Asia/Seoul")

	viper.SetDefault("remind.hour", 9)
	viper.SetDefault("remind.minute", 0)

	viper.SetDefault("db.provider", "memory")
	viper.SetDefault("db.dsn", "")
	viper.SetDefault("db.max_open_conns", 8)

	viper.SetDefault("push.provider", "noop")
	viper.SetDefault("push.gcp.project_id", "")
	viper.SetDefault("push.gcp.topic_id", "")

	viper.SetDefault("archive.provider", "noop")
	viper.SetDefault("archive.gcs.bucket", "")
	viper.SetDefault("archive.prefix", "notices")

	viper.SetEnvPrefix("NOTICE") // e.g. NOTICE_DB_DSN=postgres://...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal: defaults plus environment variables suffice.
			return nil
		}
		return err
	}
	return nil
}
