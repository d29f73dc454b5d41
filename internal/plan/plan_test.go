package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

func TestFor(t *testing.T) {
	free := For(models.PlanFree)
	assert.Equal(t, 7, free.MaxLinks)
	assert.False(t, free.CanUseGridLayout)
	assert.False(t, free.CanUseCustomBackground)
	assert.False(t, free.Unbounded())

	pro := For(models.PlanPro)
	assert.Equal(t, Unlimited, pro.MaxLinks)
	assert.True(t, pro.CanUseGridLayout)
	assert.True(t, pro.CanUseCustomBackground)
	assert.True(t, pro.Unbounded())

	assert.Equal(t, free, For("enterprise"))
	assert.Equal(t, free, For(""))
}

func TestAllowsAnother(t *testing.T) {
	free := For(models.PlanFree)
	assert.True(t, free.AllowsAnother(6))
	assert.False(t, free.AllowsAnother(7))
	assert.True(t, For(models.PlanPro).AllowsAnother(10_000))
}

func TestTruncate(t *testing.T) {
	links := make([]models.Link, 10)
	assert.Len(t, For(models.PlanFree).Truncate(links), 7)
	assert.Len(t, For(models.PlanPro).Truncate(links), 10)
	assert.Len(t, For(models.PlanFree).Truncate(links[:3]), 3)
}

func TestAllowsLayout(t *testing.T) {
	assert.True(t, For(models.PlanFree).AllowsLayout(models.LayoutList))
	assert.False(t, For(models.PlanFree).AllowsLayout(models.LayoutGrid))
	assert.True(t, For(models.PlanPro).AllowsLayout(models.LayoutGrid))
	assert.False(t, For(models.PlanPro).AllowsLayout("masonry"))
}
