package settings_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/settings"
	"github.com/zaviye/zaviye/internal/storage"
)

func ptr(s string) *string { return &s }

func defaultsFor(t *testing.T, id string) persona.Settings {
	t.Helper()
	p, ok := persona.NewMemoryStore(persona.Seed()).FindByID(id)
	require.True(t, ok)
	return p.Settings()
}

func TestEffectiveDefaults(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(), persona.Seed(), nil)

	got, err := store.Effective(persona.Glitch)
	require.NoError(t, err)
	require.Equal(t, defaultsFor(t, persona.Glitch), got)
}

func TestUpdateOverridesSingleField(t *testing.T) {
	kv := storage.NewMemoryStore()
	store := settings.NewStore(kv, persona.Seed(), nil)

	require.NoError(t, store.Update(persona.Glitch, persona.Override{Name: ptr("X")}))

	got, err := store.Effective(persona.Glitch)
	require.NoError(t, err)
	require.Equal(t, "X", got.Name)
	require.Equal(t, defaultsFor(t, persona.Glitch).Prompt, got.Prompt)

	other, err := store.Effective(persona.Blame)
	require.NoError(t, err)
	require.Equal(t, defaultsFor(t, persona.Blame), other)
}

func TestUpdateMergesSuccessivePartials(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(), persona.Seed(), nil)

	require.NoError(t, store.Update(persona.Reson, persona.Override{Name: ptr("R")}))
	require.NoError(t, store.Update(persona.Reson, persona.Override{Prompt: ptr("be brief")}))

	got, err := store.Effective(persona.Reson)
	require.NoError(t, err)
	require.Equal(t, "R", got.Name)
	require.Equal(t, "be brief", got.Prompt)
	require.Equal(t, defaultsFor(t, persona.Reson).Placeholder, got.Placeholder)
}

func TestResetRestoresDefaultsAndDropsKey(t *testing.T) {
	kv := storage.NewMemoryStore()
	store := settings.NewStore(kv, persona.Seed(), nil)

	require.NoError(t, store.Update(persona.Blame, persona.Override{Name: ptr("B"), Prompt: ptr("p")}))
	_, ok, _ := kv.Get(storage.SettingsKey)
	require.True(t, ok)

	require.NoError(t, store.Reset(persona.Blame))

	got, err := store.Effective(persona.Blame)
	require.NoError(t, err)
	require.Equal(t, defaultsFor(t, persona.Blame), got)

	_, ok, _ = kv.Get(storage.SettingsKey)
	require.False(t, ok, "empty override layer must not be persisted")
}

func TestOverridesPersistAcrossStores(t *testing.T) {
	kv := storage.NewMemoryStore()
	first := settings.NewStore(kv, persona.Seed(), nil)
	require.NoError(t, first.Update(persona.Glitch, persona.Override{Placeholder: ptr("type here")}))

	second := settings.NewStore(kv, persona.Seed(), nil)
	got, err := second.Effective(persona.Glitch)
	require.NoError(t, err)
	require.Equal(t, "type here", got.Placeholder)
}

func TestCorruptPersistedOverridesIgnored(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(storage.SettingsKey, "{broken"))

	store := settings.NewStore(kv, persona.Seed(), nil)
	got, err := store.Effective(persona.Glitch)
	require.NoError(t, err)
	require.Equal(t, defaultsFor(t, persona.Glitch), got)
}

func TestUnknownPersona(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(), persona.Seed(), nil)

	_, err := store.Effective("nobody")
	require.ErrorIs(t, err, persona.ErrUnknownPersona)
	require.ErrorIs(t, store.Update("nobody", persona.Override{Name: ptr("x")}), persona.ErrUnknownPersona)
	require.ErrorIs(t, store.Reset("nobody"), persona.ErrUnknownPersona)
}
