package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryRecord(t *testing.T) {
	rec := NewHistoryRecord("openai", "Was bedeutet 'Haus'?", "", "'Haus' means 'house'.")

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "openai", rec.Provider)
	assert.Equal(t, "Was bedeutet 'Haus'?", rec.Prompt)
	assert.Equal(t, "'Haus' means 'house'.", rec.Response)
	assert.False(t, rec.HasImage())
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "history", rec.TableName())
}

func TestHistoryRecord_Title(t *testing.T) {
	tests := []struct {
		name string
		rec  HistoryRecord
		max  int
		want string
	}{
		{name: "short", rec: HistoryRecord{Prompt: "Hallo"}, max: 20, want: "Hallo"},
		{name: "truncated by runes", rec: HistoryRecord{Prompt: "Übersetzung bitte"}, max: 5, want: "Übers..."},
		{name: "first line only", rec: HistoryRecord{Prompt: "Zeile eins\nZeile zwei"}, max: 0, want: "Zeile eins"},
		{name: "image without prompt", rec: HistoryRecord{ImageRef: "data/images/a.jpg"}, max: 20, want: "[image]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Title(tt.max))
		})
	}
}

func TestSettings_ValuesAndApply(t *testing.T) {
	s := NewSettings("openai", "tr")
	values := s.Values()
	assert.Equal(t, "openai", values[SettingDefaultProvider])
	assert.Equal(t, "tr", values[SettingLocale])

	other := NewSettings("", "")
	for k, v := range values {
		other.Apply(k, v)
	}
	other.Apply("theme", "dark")
	assert.Equal(t, "openai", other.DefaultProvider)
	assert.Equal(t, "tr", other.Locale)
}

func TestCredential_NeverMarshalsSecret(t *testing.T) {
	c := Credential{Provider: "anthropic", Secret: "sk-ant-123456"}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-ant")
	assert.Equal(t, "****3456", c.Masked())
	assert.Equal(t, "****", (&Credential{Secret: "abc"}).Masked())
	assert.Equal(t, "credentials", c.TableName())
}
