package cache

import (
	"context"
	"time"

	"github.com/vfg2006/campaign-manager-api/pkg/log"
)

// StartSweeper inicia a varredura periódica de entradas expiradas. A goroutine
// encerra quando o contexto é cancelado.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if removed := c.CleanupExpired(); removed > 0 {
					log.L.WithFields(log.Fields{
						"removed": removed,
					}).Debug("Varredura do cache removeu entradas expiradas")
				}
			case <-ctx.Done():
				log.L.Debug("Encerrando varredura periódica do cache")
				return
			}
		}
	}()
}
