package utils_test

import (
	"testing"

	"github.com/jrsteele09/marketplace-client/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	var missing *string
	require.Equal(t, "", utils.Value(missing))
	require.Equal(t, "n/a", utils.ValueOr(missing, "n/a"))
	require.Equal(t, "bio", utils.ValueOr(utils.Ptr("bio"), "n/a"))
}
