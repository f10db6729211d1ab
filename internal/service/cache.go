package service

import (
	"nstcaward-backend/internal/scrapers/nstc"
	"slices"
	"sync"
	"time"

	"github.com/antzucaro/matchr"
	gocache "github.com/patrickmn/go-cache"
)

// PlanCache remembers every record a search returned, keyed by plan name, so
// it can be looked up again without querying the registry.
type PlanCache struct {
	// lock serializes read-modify-write appends, go-cache only guards
	// single operations.
	lock  sync.Mutex
	cache *gocache.Cache
}

func NewPlanCache(ttl, cleanupInterval time.Duration) *PlanCache {
	return &PlanCache{cache: gocache.New(ttl, cleanupInterval)}
}

// Append adds records to the lists of their plan names, records already
// cached are kept.
func (c *PlanCache) Append(records []nstc.AwardRecord) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, record := range records {
		var list []nstc.AwardRecord
		if cached, ok := c.cache.Get(record.PlanName); ok {
			list = slices.Clone(cached.([]nstc.AwardRecord))
		}
		list = append(list, record)
		c.cache.Set(record.PlanName, list, gocache.DefaultExpiration)
	}
}

func (c *PlanCache) Get(planName string) ([]nstc.AwardRecord, bool) {
	cached, ok := c.cache.Get(planName)
	if !ok {
		return nil, false
	}
	return cached.([]nstc.AwardRecord), true
}

type suggestion struct {
	planName   string
	similarity float64
}

// Suggest returns up to `limit` cached plan names most similar to planName.
func (c *PlanCache) Suggest(planName string, limit int) []string {
	var candidates []suggestion
	for key := range c.cache.Items() {
		similarity := matchr.JaroWinkler(planName, key, false)
		if similarity > 0 {
			candidates = append(candidates, suggestion{planName: key, similarity: similarity})
		}
	}

	slices.SortFunc(candidates, func(a, b suggestion) int {
		if a.similarity > b.similarity {
			return -1
		}
		if a.similarity < b.similarity {
			return 1
		}
		if a.planName < b.planName {
			return -1
		}
		if a.planName > b.planName {
			return 1
		}
		return 0
	})

	out := []string{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].planName)
	}
	return out
}
