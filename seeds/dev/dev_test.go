package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

func TestSeedFile_References(t *testing.T) {
	seed, err := parseSeed(seedYAML)
	require.NoError(t, err)
	require.NotEmpty(t, seed.Admins)

	plans := map[string]bool{}
	for _, p := range seed.Plans {
		plans[p.ID] = true
	}
	tenants := map[string]bool{}
	for _, tn := range seed.Tenants {
		tenants[tn.ID] = true
		assert.True(t, platform.ValidSlug(tn.Slug), tn.Slug)
		if tn.PlanID != "" {
			assert.True(t, plans[tn.PlanID], "tenant %s references unknown plan %s", tn.ID, tn.PlanID)
		}
	}
	for _, inv := range seed.Invoices {
		assert.True(t, tenants[inv.TenantID], inv.TenantID)
	}
	for _, tk := range seed.Tickets {
		assert.True(t, tenants[tk.TenantID], tk.TenantID)
	}
	for _, n := range seed.Notifications {
		if n.Audience == model.AudienceTenant {
			assert.True(t, tenants[n.TenantID], n.TenantID)
		}
	}
	for _, id := range seed.Usage.Tenants {
		assert.True(t, tenants[id], id)
	}
	for _, a := range seed.Admins {
		assert.GreaterOrEqual(t, len(a.Password), 6)
	}
}

func TestUsageSamples(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	samples := usageSamples([]string{"ten_a", "ten_b"}, 3, now)

	require.Len(t, samples, 2*3*4)
	ids := map[string]bool{}
	for _, s := range samples {
		assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
		ids[s.ID] = true
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.False(t, s.RecordedAt.After(now))
	}
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), samples[0].RecordedAt)
}
