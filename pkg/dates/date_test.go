package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2021-03-14")
	require.NoError(t, err)
	assert.Equal(t, Of(2021, time.March, 14), d)

	d, err = Parse("2021-03-14T18:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2021-03-14", d.String())

	_, err = Parse("14/03/2021")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2022-01-02"}`), &payload))
	assert.Equal(t, Of(2022, time.January, 2), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2022-01-02"}`, string(out))
}

func TestDate_JSONNullAndEmpty(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`12`), &d))
}

func TestDate_Before(t *testing.T) {
	a := Of(2022, time.January, 1)
	b := Of(2022, time.January, 2)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
}

func TestNew_TruncatesTime(t *testing.T) {
	d := New(time.Date(2020, time.May, 5, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, Of(2020, time.May, 5), d)
}
