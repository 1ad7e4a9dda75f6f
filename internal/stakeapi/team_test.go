package stakeapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdvisor struct {
	analyzed *TeamSnapshot
	composed *MessageInput
}

func (a *stubAdvisor) AnalyzeTeam(ctx context.Context, team TeamSnapshot) (TeamAnalysis, error) {
	a.analyzed = &team
	return TeamAnalysis{
		Strengths:      []string{"active directs"},
		RewardAnalysis: "on track",
	}, nil
}

func (a *stubAdvisor) ComposeMessage(ctx context.Context, input MessageInput) (string, error) {
	a.composed = &input
	return "keep going", nil
}

func TestAnalyzeTeamHandsDownlineToAdvisor(t *testing.T) {
	s, _ := newTestSessions(t)
	advisor := &stubAdvisor{}
	s.Advisor = advisor
	admin := signUpAdmin(t, s)
	referrer := signUpUser(t, s, "referrer@example.com", admin.ReferralCode)
	referee := signUpUser(t, s, "referee@example.com", referrer.ReferralCode)
	depositApproved(t, s, referee.Id, 150)

	analysis, err := s.AnalyzeTeam(context.Background(), referrer.Id)
	require.NoError(t, err)
	assert.Equal(t, "on track", analysis.RewardAnalysis)

	require.NotNil(t, advisor.analyzed)
	assert.Equal(t, referrer.Id, advisor.analyzed.Account.Id)
	require.Len(t, advisor.analyzed.Downline, 3)
	require.Len(t, advisor.analyzed.Downline[0], 1)
	assert.Equal(t, referee.Id, advisor.analyzed.Downline[0][0].Id)
}

func TestAnalyzeTeamWithoutAdvisor(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)
	_, err := s.AnalyzeTeam(context.Background(), admin.Id)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestPriorityMessagePrefersAdminAnnouncement(t *testing.T) {
	s, store := newTestSessions(t)
	advisor := &stubAdvisor{}
	s.Advisor = advisor
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	require.NoError(t, s.Announce(user.Id, "older notice"))
	// Force distinct timestamps so newest-first ordering is observable.
	newer := Announcement{AccountId: user.Id, Message: "newer notice", CreatedAt: time.Now().Add(time.Second)}
	require.NoError(t, store.PutAnnouncement(&newer))

	msg, err := s.PriorityMessage(context.Background(), user.Id)
	require.NoError(t, err)
	assert.Equal(t, MessageSourceAdmin, msg.Source)
	assert.Equal(t, "newer notice", msg.Message)
	assert.Equal(t, newer.Id, msg.AnnouncementId)
	// The composer must not run when an announcement takes priority.
	assert.Nil(t, advisor.composed)
}

func TestPriorityMessageFallsBackToComposer(t *testing.T) {
	s, _ := newTestSessions(t)
	advisor := &stubAdvisor{}
	s.Advisor = advisor
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)

	msg, err := s.PriorityMessage(context.Background(), user.Id)
	require.NoError(t, err)
	assert.Equal(t, MessageSourceAI, msg.Source)
	assert.Equal(t, "keep going", msg.Message)

	// A level-0 account gets tier one as the next target.
	require.NotNil(t, advisor.composed)
	require.NotNil(t, advisor.composed.NextLevel)
	assert.Equal(t, uint(1), advisor.composed.NextLevel.Index)
}

func TestPriorityMessageTopTierHasNoNextLevel(t *testing.T) {
	s, _ := newTestSessions(t)
	advisor := &stubAdvisor{}
	s.Advisor = advisor
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)
	_, err := s.AdjustLevel(user.Id, 4)
	require.NoError(t, err)

	_, err = s.PriorityMessage(context.Background(), user.Id)
	require.NoError(t, err)
	require.NotNil(t, advisor.composed)
	assert.Nil(t, advisor.composed.NextLevel)
}

func TestMarkAnnouncementRead(t *testing.T) {
	s, _ := newTestSessions(t)
	advisor := &stubAdvisor{}
	s.Advisor = advisor
	admin := signUpAdmin(t, s)
	user := signUpUser(t, s, "alice@example.com", admin.ReferralCode)
	require.NoError(t, s.Announce(user.Id, "one-time notice"))

	unread, err := s.UnreadAnnouncements(user.Id)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, s.MarkAnnouncementRead(user.Id, unread[0].Id))

	unread, err = s.UnreadAnnouncements(user.Id)
	require.NoError(t, err)
	assert.Empty(t, unread)

	// Acknowledged announcements never resurface.
	msg, err := s.PriorityMessage(context.Background(), user.Id)
	require.NoError(t, err)
	assert.Equal(t, MessageSourceAI, msg.Source)

	assert.ErrorIs(t, s.MarkAnnouncementRead(user.Id, 999), ErrNotFound)
}

func TestAnnounceValidation(t *testing.T) {
	s, _ := newTestSessions(t)
	admin := signUpAdmin(t, s)

	err := s.Announce(admin.Id, "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.ErrorIs(t, s.Announce(404, "hello"), ErrNotFound)
}
