package domain

import (
	"time"
)

// DateRange é a janela de datas, inclusiva nas duas pontas, usada nas buscas
// de métricas.
type DateRange struct {
	Since time.Time
	Until time.Time
}

// LastDays monta a janela dos últimos n dias terminando hoje.
func LastDays(n int) DateRange {
	now := time.Now()
	return DateRange{
		Since: now.AddDate(0, 0, -n),
		Until: now,
	}
}
