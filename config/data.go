package config

import (
	"github.com/jcooky/go-din"
)

type DataConfig struct {
	ProductDataFile string `env:"PRODUCT_DATA_FILE"`
}

func init() {
	din.RegisterT(func(c *din.Container) (*DataConfig, error) {
		conf := DataConfig{
			ProductDataFile: "product_data.yaml",
		}
		return &conf, resolveConfig(&conf, c.Env == din.EnvTest)
	})
}
