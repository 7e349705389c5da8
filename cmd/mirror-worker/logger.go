package main

import (
	"go.uber.org/zap"

	"github.com/kahurangi/trapnz-mirror/internal/config"
	"github.com/kahurangi/trapnz-mirror/internal/logging"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
