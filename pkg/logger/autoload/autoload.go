// Package autoload initializes the global logger from LOG_* environment
// variables on import:
//
//	import _ "github.com/wayfarer-ai/wayfinder/pkg/logger/autoload"
package autoload

import (
	configx "github.com/wayfarer-ai/wayfinder/pkg/config"
	logx "github.com/wayfarer-ai/wayfinder/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
