package productdata

import (
	"github.com/jcooky/go-din"

	"github.com/prodpulse/knowledgesync/config"
)

func init() {
	din.RegisterT(func(c *din.Container) (*FileStore, error) {
		conf, err := din.GetT[*config.DataConfig](c)
		if err != nil {
			return nil, err
		}

		return NewFileStore(conf.ProductDataFile)
	})
	din.RegisterT(func(c *din.Container) (Store, error) {
		return din.GetT[*FileStore](c)
	})
	din.RegisterT(func(c *din.Container) (Settings, error) {
		return din.GetT[*FileStore](c)
	})
}
