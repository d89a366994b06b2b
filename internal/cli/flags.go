package cli

import (
	"github.com/spf13/pflag"
)

// bindFlag makes a flag the highest priority source for a config key
func bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		panic("cli: no flag to bind for " + key)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
