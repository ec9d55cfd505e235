package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func resetOptions() {
	optionsLock.Lock()
	defer optionsLock.Unlock()
	options = make(map[string]*Option)
}

func registerTestOptions(t *testing.T) {
	t.Helper()

	resetOptions()
	require.NoError(t, Register(&Option{
		Name:         "Fonts Delay",
		Key:          "queues/data/fontsDelay",
		Description:  "Delay before the fonts detection runs.",
		OptType:      OptTypeInt,
		DefaultValue: 1000,
	}))
	require.NoError(t, Register(&Option{
		Name:            "Result Format",
		Key:             "results/format",
		Description:     "Serialization format of results.",
		OptType:         OptTypeString,
		DefaultValue:    "json",
		ValidationRegex: "^(json|yaml|cbor|msgpack)$",
	}))
	require.NoError(t, Register(&Option{
		Name:         "Font Families",
		Key:          "detectors/fonts/families",
		Description:  "Font families to check for.",
		OptType:      OptTypeStringArray,
		DefaultValue: []string{"Arial", "Courier New"},
	}))
	require.NoError(t, Register(&Option{
		Name:         "Enable API",
		Key:          "api/enabled",
		Description:  "Enable the api.",
		OptType:      OptTypeBool,
		DefaultValue: false,
	}))
}

func TestRegistry(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	resetOptions()

	if err := Register(&Option{
		Name:            "name",
		Key:             "key",
		Description:     "description",
		OptType:         OptTypeString,
		DefaultValue:    "water",
		ValidationRegex: "^(banana|water)$",
	}); err != nil {
		t.Error(err)
	}

	if err := Register(&Option{
		Name:            "name",
		Key:             "key",
		Description:     "description",
		OptType:         0,
		DefaultValue:    "default",
		ValidationRegex: "^[A-Z][a-z]+$",
	}); err == nil {
		t.Error("should fail")
	}

	if err := Register(&Option{
		Name:            "name",
		Key:             "key",
		Description:     "description",
		OptType:         OptTypeString,
		DefaultValue:    "default",
		ValidationRegex: "[",
	}); err == nil {
		t.Error("should fail")
	}

	// default does not match regex
	err := Register(&Option{
		Name:            "name",
		Key:             "other",
		Description:     "description",
		OptType:         OptTypeString,
		DefaultValue:    "apple",
		ValidationRegex: "^(banana|water)$",
	})
	var ioe *InvalidOptionError
	assert.ErrorAs(t, err, &ioe)

	_, err = GetOption("other")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestGetAndSet(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	registerTestOptions(t)

	delay := GetAsInt("queues/data/fontsDelay", 0)
	format := GetAsString("results/format", "")
	families := GetAsStringArray("detectors/fonts/families", nil)
	enabled := GetAsBool("api/enabled", true)
	missing := GetAsInt("does/not/exist", 42)

	assert.Equal(t, int64(1000), delay())
	assert.Equal(t, "json", format())
	assert.Equal(t, []string{"Arial", "Courier New"}, families())
	assert.False(t, enabled())
	assert.Equal(t, int64(42), missing())

	require.NoError(t, SetConfigOption("queues/data/fontsDelay", 250))
	require.NoError(t, SetConfigOption("results/format", "cbor"))
	require.NoError(t, SetConfigOption("api/enabled", true))
	assert.Equal(t, int64(250), delay())
	assert.Equal(t, "cbor", format())
	assert.True(t, enabled())

	// invalid values are rejected and leave the active value untouched
	err := SetConfigOption("results/format", "xml")
	assert.ErrorIs(t, err, ErrInvalidData)
	err = SetConfigOption("queues/data/fontsDelay", "soon")
	assert.ErrorIs(t, err, ErrInvalidData)
	err = SetConfigOption("queues/data/fontsDelay", 1.5)
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.Equal(t, "cbor", format())
	assert.Equal(t, int64(250), delay())

	// reset to default
	require.NoError(t, SetConfigOption("queues/data/fontsDelay", nil))
	assert.Equal(t, int64(1000), delay())

	err = SetConfigOption("does/not/exist", 1)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestStringArrayIsCopied(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	registerTestOptions(t)

	input := []string{"Arial", "Verdana"}
	require.NoError(t, SetConfigOption("detectors/fonts/families", input))
	input[0] = "Comic Sans MS"

	families := GetAsStringArray("detectors/fonts/families", nil)
	got := families()
	assert.Equal(t, []string{"Arial", "Verdana"}, got)

	got[1] = "Impact"
	assert.Equal(t, []string{"Arial", "Verdana"}, families())
}

func TestSetConfig(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	registerTestOptions(t)

	changes := 0
	OnChange(func() { changes++ })

	err := SetConfig(map[string]interface{}{
		"queues/data/fontsDelay": float64(500),
		"results/format":         "pdf",
		"unknown/key":            true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, 1, changes)

	assert.Equal(t, int64(500), GetAsInt("queues/data/fontsDelay", 0)())
	assert.Equal(t, "json", GetAsString("results/format", "")())
}

func TestJSONToMap(t *testing.T) {
	t.Parallel()

	flat, err := JSONToMap([]byte(`{"queues":{"data":{"fontsDelay":10},"events":{"copyPasteDelay":20}},"api":{"listen":"127.0.0.1:8080"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"queues/data/fontsDelay":       float64(10),
		"queues/events/copyPasteDelay": float64(20),
		"api/listen":                   "127.0.0.1:8080",
	}, flat)

	_, err = JSONToMap([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrInvalidData)
	_, err = JSONToMap([]byte(`{"a":`))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestLoadFile(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	registerTestOptions(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queues:
  data:
    fontsDelay: 1500
results:
  format: yaml
detectors:
  fonts:
    families:
      - Helvetica
      - Georgia
`), 0o600))

	require.NoError(t, LoadFile(path))
	assert.Equal(t, int64(1500), GetAsInt("queues/data/fontsDelay", 0)())
	assert.Equal(t, "yaml", GetAsString("results/format", "")())
	assert.Equal(t, []string{"Helvetica", "Georgia"}, GetAsStringArray("detectors/fonts/families", nil)())

	exported, err := ExportJSON()
	require.NoError(t, err)
	assert.Equal(t, int64(1500), gjson.GetBytes(exported, "queues.data.fontsDelay").Int())
	assert.Equal(t, "yaml", gjson.GetBytes(exported, "results.format").String())
	assert.False(t, gjson.GetBytes(exported, "api.enabled").Exists())

	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestOptionExport(t *testing.T) { //nolint:paralleltest // Modifies global config state.
	registerTestOptions(t)
	require.NoError(t, SetConfigOption("results/format", "msgpack"))

	opt, err := GetOption("results/format")
	require.NoError(t, err)
	data, err := opt.Export()
	require.NoError(t, err)
	assert.Equal(t, "results/format", gjson.GetBytes(data, "Key").String())
	assert.Equal(t, "string", gjson.GetBytes(data, "TypeName").String())
	assert.Equal(t, "msgpack", gjson.GetBytes(data, "Value").String())
}
