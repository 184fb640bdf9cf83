package config

import (
	"github.com/jcooky/go-din"
)

type OpenAIConfig struct {
	OpenAIApiKey string `env:"OPENAI_API_KEY"`
}

func init() {
	din.RegisterT(func(c *din.Container) (*OpenAIConfig, error) {
		conf := OpenAIConfig{}
		return &conf, resolveConfig(&conf, c.Env == din.EnvTest)
	})
}
