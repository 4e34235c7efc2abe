package container

import (
	"context"
	"testing"

	"goattend/adapters/sqlstore"
	"goattend/internal/config"
	"goattend/internal/migration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_Wiring(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	c, err := New(config.Default())
	require.NoError(t, err)
	require.Error(t, c.InitWithDatabase(nil))

	db, err := sqlstore.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))

	require.NoError(t, c.InitWithDatabase(db))
	assert.NotNil(t, c.Uploads)
	assert.NotNil(t, c.Reconciler)
	assert.Equal(t, []string{"excel", "html", "pdf"}, c.Reports.Formats())

	require.NoError(t, c.Shutdown(context.Background()))
}
