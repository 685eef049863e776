package config

import (
	"wallet-service/src/internal/gateway/paynow"
	"wallet-service/src/pkg/log"

	"github.com/spf13/viper"
)

func NewPaynowClient(viper *viper.Viper, log log.Log) *paynow.Client {
	return paynow.NewClient(viper, log)
}
