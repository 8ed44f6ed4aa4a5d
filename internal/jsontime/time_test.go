package jsontime_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/marketplace-client/internal/jsontime"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	var v struct {
		Zoned jsontime.Time  `json:"zoned"`
		Naive jsontime.Time  `json:"naive"`
		Empty *jsontime.Time `json:"empty"`
	}
	err := json.Unmarshal([]byte(`{"zoned":"2024-05-01T10:00:00+02:00","naive":"2024-05-01T08:00:00.123456","empty":null}`), &v)
	require.NoError(t, err)
	require.True(t, v.Zoned.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	require.Equal(t, 123456000, v.Naive.Nanosecond())
	require.Equal(t, time.UTC, v.Naive.Location())
	require.Nil(t, v.Empty)

	var bad jsontime.Time
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &bad))
}

func TestMarshal(t *testing.T) {
	data, err := json.Marshal(jsontime.New(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, `"2024-05-01T08:00:00Z"`, string(data))

	data, err = json.Marshal(jsontime.Time{})
	require.NoError(t, err)
	require.Equal(t, "null", string(data))
}
