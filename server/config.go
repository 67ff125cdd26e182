package server

import (
	"errors"
	"os"

	"github.com/wgdzlh/geoedit"

	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_ADDR         = ":8080"
	DEFAULT_MAX_SESSIONS = 64
	DEFAULT_MAX_UPLOAD   = 64 << 20
)

// 服务配置
type Config struct {
	Addr           string `yaml:"addr"`
	MaxSessions    int    `yaml:"max_sessions"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	TmpDir         string `yaml:"tmp_dir"`
	DbfEncoding    string `yaml:"dbf_encoding"`
	Log            struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Addr:           DEFAULT_ADDR,
		MaxSessions:    DEFAULT_MAX_SESSIONS,
		MaxUploadBytes: DEFAULT_MAX_UPLOAD,
		DbfEncoding:    geoedit.DEFAULT_DBF_ENCODING,
	}
	cfg.Log.Level = "info"
	return cfg
}

// 读取yaml配置，文件不存在时使用默认值
func LoadConfig(path string) (cfg *Config, err error) {
	cfg = DefaultConfig()
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = def.MaxSessions
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.DbfEncoding == "" {
		c.DbfEncoding = def.DbfEncoding
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
