package bootstrap

import "github.com/kbukum/linepipe/logger"

// Config is the constraint for application configuration types.
// *config.Config satisfies it.
type Config interface {
	GetName() string
	GetLogging() logger.Config
	ApplyDefaults()
	Validate() error
}
