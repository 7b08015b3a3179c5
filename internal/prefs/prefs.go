// Package prefs is the single accessor for the scalar user settings.
// All reads of the sound preference go through here; nothing else
// inspects the persisted value directly.
package prefs

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/hollis/daybook/internal/models"
	"github.com/hollis/daybook/internal/store"
)

// Preferences holds the working copy of the scalar settings, written
// through to the store on every change.
type Preferences struct {
	mu    sync.Mutex
	store store.Provider

	username string
	theme    string
	sound    bool
}

// Load reads persisted preferences, applying defaults for absent keys.
func Load(st store.Provider) (*Preferences, error) {
	p := &Preferences{
		store:    st,
		username: models.DefaultUsername,
		theme:    models.ThemeLight,
	}

	if v, ok, err := st.GetScalar(store.KeyUsername); err != nil {
		return nil, fmt.Errorf("prefs: load username: %w", err)
	} else if ok && v != "" {
		p.username = v
	}

	if v, ok, err := st.GetScalar(store.KeyTheme); err != nil {
		return nil, fmt.Errorf("prefs: load theme: %w", err)
	} else if ok && v == models.ThemeDark {
		p.theme = models.ThemeDark
	}

	if v, ok, err := st.GetScalar(store.KeySoundEnabled); err != nil {
		return nil, fmt.Errorf("prefs: load sound: %w", err)
	} else if ok {
		p.sound = v == "true"
	}

	return p, nil
}

// Username returns the current display name.
func (p *Preferences) Username() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.username
}

// SetUsername persists a new display name.
func (p *Preferences) SetUsername(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.SetScalar(store.KeyUsername, name); err != nil {
		return err
	}
	p.username = name
	return nil
}

// SoundEnabled reports whether the notification sound is on.
func (p *Preferences) SoundEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sound
}

// SetSoundEnabled persists the sound flag.
func (p *Preferences) SetSoundEnabled(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.SetScalar(store.KeySoundEnabled, strconv.FormatBool(on)); err != nil {
		return err
	}
	p.sound = on
	return nil
}

// Theme returns the current theme ("light" or "dark").
func (p *Preferences) Theme() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// SetTheme persists the theme. Anything other than "dark" is stored as "light".
func (p *Preferences) SetTheme(theme string) error {
	if theme != models.ThemeDark {
		theme = models.ThemeLight
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.SetScalar(store.KeyTheme, theme); err != nil {
		return err
	}
	p.theme = theme
	return nil
}

// Snapshot returns the current preference values.
func (p *Preferences) Snapshot() models.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.Preferences{
		Username:     p.username,
		Theme:        p.theme,
		SoundEnabled: p.sound,
	}
}
