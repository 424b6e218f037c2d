package core

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-analytics-etl/internal/domain/model"
)

// RunLockKey returns the lock key for one job over one window.
func RunLockKey(job model.JobName, window model.Window) string {
	return fmt.Sprintf("etl:lock:%s:%d:%d", job, window.Start.Unix(), window.End.Unix())
}
