package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datadash/internal/models"
)

func TestPreviewRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	p := models.Preview{
		Name:  "vendors.csv",
		Sheet: "Sheet1",
		Cols:  []string{"name", "capacity"},
		Rows: []models.Row{
			{"name": models.Text("Acme"), "capacity": models.Number(120)},
			{"name": models.Text("Globex"), "capacity": models.Absent()},
		},
	}
	require.NoError(t, c.Put(p))

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Cols, got.Cols)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, models.Number(120), got.Rows[0].Get("capacity"))
	assert.True(t, got.Rows[1].Get("capacity").IsAbsent())
}

func TestPreviewOverwrite(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(models.Preview{Name: "first.csv"}))
	require.NoError(t, c.Put(models.Preview{Name: "second.csv"}))

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "second.csv", got.Name)
}

func TestPreviewMissIsNotAnError(t *testing.T) {
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *PreviewCache
	assert.NoError(t, c.Put(models.Preview{Name: "x"}))
	_, ok := c.Get()
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}
