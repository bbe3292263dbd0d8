package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock permite avançar o relógio do cache manualmente nos testes
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time { return f.current }

func (f *fakeClock) advance(d time.Duration) { f.current = f.current.Add(d) }

func newTestCache(capacity int) (*Cache, *fakeClock) {
	clock := &fakeClock{current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := New(Config{Capacity: capacity})
	c.now = clock.now
	return c, clock
}

func TestCache_GetSetRoundTrip(t *testing.T) {
	c, _ := newTestCache(10)

	key := Key("ACC001", EntityTypeCampaign, "123")
	c.Set(key, "valor", EntityTypeCampaign)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "valor", got)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestCache_TTLExpiryRemovesOnGet(t *testing.T) {
	c, clock := newTestCache(10)

	key := Key("ACC001", EntityTypeCampaign, "123")
	c.Set(key, "valor", EntityTypeCampaign)

	// TTL de campanhas é 5 minutos
	clock.advance(5*time.Minute + time.Second)

	got, ok := c.Get(key)
	assert.False(t, ok)
	assert.Nil(t, got)

	// A própria leitura remove a entrada: Has é falso sem varredura
	assert.False(t, c.Has(key))
	assert.Equal(t, 0, c.Stats().Size)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCache_TTLPorTipoDeEntidade(t *testing.T) {
	c, clock := newTestCache(10)

	accountKey := Key("ACC001", EntityTypeAccount, "ACC001")
	campaignKey := Key("ACC001", EntityTypeCampaign, "123")
	c.Set(accountKey, "conta", EntityTypeAccount)
	c.Set(campaignKey, "campanha", EntityTypeCampaign)

	// Aos 10 minutos a campanha (TTL 5m) expirou, a conta (TTL 30m) não
	clock.advance(10 * time.Minute)

	assert.False(t, c.Has(campaignKey))
	assert.True(t, c.Has(accountKey))
}

func TestCache_LRUEvictionUsesAccessRecency(t *testing.T) {
	c, clock := newTestCache(3)

	c.Set("k1", 1, EntityTypeAccount)
	clock.advance(time.Second)
	c.Set("k2", 2, EntityTypeAccount)
	clock.advance(time.Second)
	c.Set("k3", 3, EntityTypeAccount)
	clock.advance(time.Second)

	// Acessa k1: ele deixa de ser o menos recentemente usado
	_, ok := c.Get("k1")
	require.True(t, ok)
	clock.advance(time.Second)

	// Cache cheio: inserir k4 deve remover exatamente k2 (acesso mais antigo)
	c.Set("k4", 4, EntityTypeAccount)

	assert.True(t, c.Has("k1"))
	assert.False(t, c.Has("k2"))
	assert.True(t, c.Has("k3"))
	assert.True(t, c.Has("k4"))
	assert.Equal(t, 3, c.Stats().Size)
}

func TestCache_SetDeChaveExistenteNaoRemove(t *testing.T) {
	c, clock := newTestCache(2)

	c.Set("k1", 1, EntityTypeAccount)
	clock.advance(time.Second)
	c.Set("k2", 2, EntityTypeAccount)
	clock.advance(time.Second)

	// Regravar chave existente com o cache cheio não dispara LRU
	c.Set("k1", 10, EntityTypeAccount)

	assert.True(t, c.Has("k1"))
	assert.True(t, c.Has("k2"))

	got, _ := c.Get("k1")
	assert.Equal(t, 10, got)
}

func TestCache_InvalidatePattern(t *testing.T) {
	c, _ := newTestCache(10)

	c.Set(Key("ACC001", EntityTypeCampaign, "1"), "a", EntityTypeCampaign)
	c.Set(Key("ACC001", EntityTypeCampaign, "2"), "b", EntityTypeCampaign)
	c.Set(Key("ACC001", EntityTypeInsights, "1"), "c", EntityTypeInsights)
	c.Set(Key("ACC002", EntityTypeCampaign, "9"), "d", EntityTypeCampaign)

	removed := c.InvalidatePattern("ACC001:campaigns")
	assert.Equal(t, 2, removed)

	assert.False(t, c.Has(Key("ACC001", EntityTypeCampaign, "1")))
	assert.True(t, c.Has(Key("ACC001", EntityTypeInsights, "1")))
	assert.True(t, c.Has(Key("ACC002", EntityTypeCampaign, "9")))
}

func TestCache_CleanupExpired(t *testing.T) {
	c, clock := newTestCache(10)

	c.Set("viva", "a", EntityTypeAccount)
	c.Set("morta1", "b", EntityTypeAdGroup)
	c.Set("morta2", "c", EntityTypeAd)

	clock.advance(4 * time.Minute) // ad groups e ads têm TTL de 3 minutos

	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Stats().Size)
	assert.True(t, c.Has("viva"))
}

func TestCache_StatsBreakdownAndReset(t *testing.T) {
	c, clock := newTestCache(10)

	c.Set("viva", "a", EntityTypeAccount)
	c.Set("expirada", "b", EntityTypeAd)
	clock.advance(4 * time.Minute)

	c.Get("viva")
	c.Get("inexistente")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Expired)

	c.ResetStats()
	stats = c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestKey_ComposicaoComSubchave(t *testing.T) {
	assert.Equal(t, "ACC001:insights:123:2024-06-01", Key("ACC001", EntityTypeInsights, "123", "2024-06-01"))
	assert.Equal(t, "ACC001:campaigns:123", Key("ACC001", EntityTypeCampaign, "123"))
}
