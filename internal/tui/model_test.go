package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/servicesaver/servicesaver/internal/router"
	"github.com/servicesaver/servicesaver/internal/session"
	"github.com/servicesaver/servicesaver/internal/testutil"
)

func TestModel_ApplySessionRoutes(t *testing.T) {
	m := NewModel()

	changed := m.Apply(session.Update{Kind: session.KindSession, Session: testutil.MovingSession()})
	assert.True(t, changed)
	assert.Equal(t, router.ScreenStrategy, m.Screen)
	assert.True(t, m.Synced)

	m.Screen = router.ScreenChat
	changed = m.Apply(session.Update{Kind: session.KindSession, Session: testutil.MovingSession()})
	assert.False(t, changed, "same status is not a transition")
	assert.Equal(t, router.ScreenChat, m.Screen)

	changed = m.Apply(session.Update{Kind: session.KindSession})
	assert.True(t, changed)
	assert.Nil(t, m.Session)
	assert.Equal(t, router.ScreenChat, m.Screen)
}

func TestModel_CachedSnapshotIsNotSynced(t *testing.T) {
	m := NewModel()
	m.Apply(session.Update{Kind: session.KindSession, Session: testutil.TelecomSession(), FromCache: true})
	assert.False(t, m.Synced)
	assert.NotNil(t, m.Session)
	assert.Equal(t, router.ScreenStrategy, m.Screen)
}

func TestModel_SyncHealth(t *testing.T) {
	m := NewModel()
	m.Apply(session.Update{Kind: session.KindMessages, Messages: testutil.Conversation()})
	assert.Len(t, m.Messages, 2)

	m.Apply(session.Update{Kind: session.KindError, Stream: session.StreamSession, Err: errors.New("unavailable")})
	assert.Error(t, m.SyncErr)
	assert.False(t, m.Degraded)
	assert.Contains(t, m.SyncLabel(), "reconnecting")

	m.Apply(session.Update{Kind: session.KindError, Err: errors.New("unavailable"), Degraded: true})
	assert.True(t, m.Degraded)
	assert.Contains(t, m.SyncLabel(), "offline")

	m.Apply(session.Update{Kind: session.KindRecovered})
	assert.NoError(t, m.SyncErr)
	assert.False(t, m.Degraded)
}

func TestModel_SignOut(t *testing.T) {
	m := NewModel()
	m.State = StateDashboard
	m.UserID = "user-1"
	m.Email = "dana@example.com"
	m.Apply(session.Update{Kind: session.KindSession, Session: testutil.MovingSession()})
	m.Apply(session.Update{Kind: session.KindMessages, Messages: testutil.Conversation()})

	m.SignOut()

	assert.Equal(t, StateLogin, m.State)
	assert.Empty(t, m.UserID)
	assert.Nil(t, m.Session)
	assert.Nil(t, m.Messages)
	assert.False(t, m.Synced)
	assert.Equal(t, router.ScreenChat, m.Screen)
	assert.Equal(t, session.StatusNone, m.Tracker.Last())
}

func TestModel_Toast(t *testing.T) {
	m := NewModel()
	assert.NotNil(t, m.ShowToast("first"))
	assert.NotNil(t, m.ShowToast("second"))

	m.ExpireToast(1)
	assert.Equal(t, "second", m.Toast, "an older timer must not hide a newer toast")

	m.ExpireToast(2)
	assert.Empty(t, m.Toast)
}
