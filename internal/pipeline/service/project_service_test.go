package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ownership"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

func TestProjectServiceCreate(t *testing.T) {
	f := newFixture(t, 0.9)
	ctx := context.Background()

	ws, err := f.projects.CreateWorkspace(ctx, "u1", "  Side projects ")
	require.NoError(t, err)
	assert.Equal(t, "Side projects", ws.Name)

	p, v, err := f.projects.Create(ctx, "u1", ws.ID, "  coffee subscription ")
	require.NoError(t, err)
	assert.Equal(t, "coffee subscription", p.Idea)
	assert.Equal(t, v.ID, p.CurrentVersionID)
	assert.Equal(t, domain.StageStrategy, v.Stage)

	stored, err := f.projects.GetVersion(ctx, v.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ProjectID)

	_, _, err = f.projects.Create(ctx, "u2", ws.ID, "tea")
	assert.ErrorIs(t, err, ownership.ErrForbidden)

	_, _, err = f.projects.Create(ctx, "u1", ws.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidIdea)

	_, _, err = f.projects.Create(ctx, "u1", "no-such-workspace", "tea")
	assert.ErrorIs(t, err, ownership.ErrNotFound)
}

func TestProjectServiceListNewestFirst(t *testing.T) {
	f := newFixture(t, 0.9)
	ctx := context.Background()
	ws, err := f.projects.CreateWorkspace(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "My Workspace", ws.Name)

	for _, idea := range []string{"first", "second", "third"} {
		_, _, err := f.projects.Create(ctx, "u1", ws.ID, idea)
		require.NoError(t, err)
	}
	list, err := f.projects.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Idea)
	assert.Equal(t, "first", list[2].Idea)

	other, err := f.projects.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = f.projects.List(ctx, "")
	assert.ErrorIs(t, err, ownership.ErrUnauthorized)

	workspaces, err := f.projects.ListWorkspaces(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, workspaces, 1)
}
