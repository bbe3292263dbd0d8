// Package cache implementa um cache em memória com TTL por tipo de entidade e
// remoção LRU por capacidade. É local ao processo: em uma implantação com
// múltiplas instâncias cada processo mantém o seu próprio cache.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/vfg2006/campaign-manager-api/pkg/monitoring"
)

// EntityType identifica o tipo de dado cacheado; cada tipo carrega um TTL fixo.
type EntityType string

const (
	EntityTypeAccount  EntityType = "account"
	EntityTypeCampaign EntityType = "campaigns"
	EntityTypeAdGroup  EntityType = "adgroups"
	EntityTypeAd       EntityType = "ads"
	EntityTypeInsights EntityType = "insights"
)

// TTLs padrão por tipo de entidade. Dados de conta mudam pouco; a hierarquia
// de campanhas muda com frequência; métricas ficam no meio termo.
var defaultTTLs = map[EntityType]time.Duration{
	EntityTypeAccount:  30 * time.Minute,
	EntityTypeCampaign: 5 * time.Minute,
	EntityTypeAdGroup:  3 * time.Minute,
	EntityTypeAd:       3 * time.Minute,
	EntityTypeInsights: 10 * time.Minute,
}

const defaultCapacity = 1000

// Config parametriza o cache. Campos zerados assumem os padrões acima.
type Config struct {
	Capacity int
	TTLs     map[EntityType]time.Duration
}

type entry struct {
	value        any
	expiresAt    time.Time
	lastAccessed time.Time
}

// Stats é o retrato observável do cache em um instante.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Active  int    `json:"active"`
	Expired int    `json:"expired"`
	Size    int    `json:"size"`
}

// Cache é seguro para uso concorrente.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttls     map[EntityType]time.Duration
	entries  map[string]*entry

	hits   uint64
	misses uint64

	// now é substituível em testes
	now func() time.Time
}

// New cria um cache com a configuração informada.
func New(cfg Config) *Cache {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	ttls := make(map[EntityType]time.Duration, len(defaultTTLs))
	for entity, ttl := range defaultTTLs {
		ttls[entity] = ttl
	}
	for entity, ttl := range cfg.TTLs {
		if ttl > 0 {
			ttls[entity] = ttl
		}
	}

	return &Cache{
		capacity: capacity,
		ttls:     ttls,
		entries:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Key monta a chave canônica `<owner>:<entidade>:<id>[:<subchave>]`.
func Key(owner string, entity EntityType, id string, subkeys ...string) string {
	parts := append([]string{owner, string(entity), id}, subkeys...)
	return strings.Join(parts, ":")
}

// Get retorna o valor da chave, ou nil se ausente ou expirado. Uma entrada
// expirada é removida na própria leitura e conta como miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		monitoring.CacheMisses.Inc()
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		c.misses++
		monitoring.CacheMisses.Inc()
		return nil, false
	}

	e.lastAccessed = c.now()
	c.hits++
	monitoring.CacheHits.Inc()
	return e.value, true
}

// Set grava o valor com o TTL do tipo de entidade. Se a chave é nova e o cache
// está cheio, a entrada acessada há mais tempo é removida antes da inserção.
func (c *Cache) Set(key string, value any, entity EntityType) {
	ttl, ok := c.ttls[entity]
	if !ok {
		ttl = defaultTTLs[EntityTypeCampaign]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLRU()
	}

	now := c.now()
	c.entries[key] = &entry{
		value:        value,
		expiresAt:    now.Add(ttl),
		lastAccessed: now,
	}
}

// evictLRU remove a entrada com o menor lastAccessed. Chamador segura o lock.
func (c *Cache) evictLRU() {
	var oldestKey string
	var oldest time.Time

	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccessed
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		monitoring.CacheEvictions.Inc()
	}
}

// Delete remove a chave e informa se ela existia.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Has informa se a chave existe e ainda não expirou. Não conta hit/miss.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}

	return !c.now().After(e.expiresAt)
}

// InvalidatePattern remove todas as chaves com o prefixo informado e retorna
// quantas foram removidas. Usado para invalidar, por exemplo, todas as
// campanhas de uma conta após uma sincronização.
func (c *Cache) InvalidatePattern(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// CleanupExpired remove todas as entradas cujo TTL já passou, independente de
// acesso, e retorna quantas foram removidas.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Stats retorna os contadores acumulados e o retrato ativo/expirado atual.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{Hits: c.hits, Misses: c.misses, Size: len(c.entries)}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.Expired++
		} else {
			stats.Active++
		}
	}

	return stats
}

// ResetStats zera os contadores de hit/miss.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = 0
	c.misses = 0
}
