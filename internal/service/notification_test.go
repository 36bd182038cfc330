package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"radar_backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionNotifiesReferrer(t *testing.T) {
	conn := newTestDB(t)
	referrer := seedUser(t, conn, "ref@example.com", domain.RoleUser, withCode("EX-1234", time.Now().Add(time.Hour)))
	auth := NewAuthService(conn, nil, testHasher, testConfig())
	notes := NewNotificationService(conn)
	ctx := context.Background()

	_, err := auth.Signup(ctx, SignupInput{Name: "Bilal", Email: "bilal@example.com", Password: "pw", ReferralCode: "EX-1234"})
	require.NoError(t, err)

	inbox, err := notes.List(ctx, referrer.ID)
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, int64(1), inbox.UnreadCount)
	n := inbox.Notifications[0]
	assert.Equal(t, domain.NotificationCommission, n.Type)
	assert.Equal(t, "Commission earned", n.Title)
	assert.Equal(t, "You earned 300 PKR for referring Bilal", n.Message)
	assert.False(t, n.IsRead)
}

func TestNotificationInbox(t *testing.T) {
	conn := newTestDB(t)
	u := seedUser(t, conn, "ali@example.com", domain.RoleUser)
	other := seedUser(t, conn, "other@example.com", domain.RoleUser)
	for i := 0; i < 25; i++ {
		require.NoError(t, conn.Create(&domain.Notification{
			UserID: u.ID, Type: domain.NotificationCommission, Title: "Commission earned", Message: fmt.Sprintf("note %d", i),
		}).Error)
	}
	require.NoError(t, conn.Create(&domain.Notification{UserID: other.ID, Type: domain.NotificationCommission, Title: "x", Message: "y"}).Error)
	notes := NewNotificationService(conn)
	ctx := context.Background()

	inbox, err := notes.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 20)
	assert.Equal(t, "note 24", inbox.Notifications[0].Message)
	assert.Equal(t, "note 5", inbox.Notifications[19].Message)
	assert.Equal(t, int64(25), inbox.UnreadCount)

	changed, err := notes.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), changed)
	changed, err = notes.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, changed)

	inbox, err = notes.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, inbox.UnreadCount)
	assert.True(t, inbox.Notifications[0].IsRead)

	// Other users keep their unread notifications
	inbox, err = notes.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inbox.UnreadCount)

	empty, err := notes.List(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty.Notifications)
	assert.NotNil(t, empty.Notifications)
}
