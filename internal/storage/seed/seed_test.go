package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/storage"
	"github.com/ashita-ai/manabi/internal/storage/seed"
)

func TestDemo_Parses(t *testing.T) {
	ds, err := seed.Demo()
	require.NoError(t, err)
	assert.Len(t, ds.Schools, 4)
	assert.Len(t, ds.Reports, 4)

	bySchool := make(map[string]bool)
	for _, s := range ds.Schools {
		bySchool[s.ID.String()] = true
	}
	for _, r := range ds.Reports {
		assert.True(t, bySchool[r.SchoolID.String()], "report %s points at a demo school", r.ID)
	}
}

func TestLoadIfEmpty(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()

	loaded, err := seed.LoadIfEmpty(ctx, st)
	require.NoError(t, err)
	assert.True(t, loaded)

	_, total, err := st.ListSchools(ctx, model.SchoolFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	loaded, err = seed.LoadIfEmpty(ctx, st)
	require.NoError(t, err)
	assert.False(t, loaded, "a populated store is left alone")

	reports, err := st.ListAllReports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 4)
}
