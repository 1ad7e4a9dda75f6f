package stakeapi

import (
	"context"
)

const downlineDepth = 3

// TeamSnapshot is the read-only view handed to the AI collaborator: the
// account itself plus three levels of its downline.
type TeamSnapshot struct {
	Account  Snapshot    `json:"account"`
	Downline [][]Account `json:"downline"`
}

type TeamAnalysis struct {
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Suggestions    []string `json:"suggestions"`
	RewardAnalysis string   `json:"reward_analysis"`
}

const (
	MessageSourceAdmin = "admin"
	MessageSourceAI    = "ai"
)

type PriorityMessage struct {
	Source         string `json:"source"`
	Message        string `json:"message"`
	AnnouncementId uint   `json:"announcement_id,omitempty"`
}

// MessageInput feeds the AI composer when no admin announcement takes
// priority. NextLevel is nil at the top tier.
type MessageInput struct {
	Account   Snapshot `json:"account"`
	NextLevel *Level   `json:"next_level,omitempty"`
}

// Advisor is the generative collaborator. It only ever sees read-only
// snapshots and returns opaque display strings.
type Advisor interface {
	AnalyzeTeam(ctx context.Context, team TeamSnapshot) (TeamAnalysis, error)
	ComposeMessage(ctx context.Context, input MessageInput) (string, error)
}

// Downline walks three referral levels down. Account lookups are paged in
// batches of at most BatchSize ids.
func (s *Sessions) Downline(accountId uint) ([][]Account, error) {
	if _, err := s.store.GetByID(accountId); err != nil {
		return nil, err
	}
	out := make([][]Account, 0, downlineDepth)
	frontier := []uint{accountId}
	for depth := 0; depth < downlineDepth; depth++ {
		var nextIds []uint
		for _, id := range frontier {
			edges, err := s.store.Referrals(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				nextIds = append(nextIds, edge.RefereeId)
			}
		}
		accounts, err := s.accountsByIds(nextIds)
		if err != nil {
			return nil, err
		}
		out = append(out, accounts)
		if len(nextIds) == 0 {
			for len(out) < downlineDepth {
				out = append(out, []Account{})
			}
			break
		}
		frontier = nextIds
	}
	return out, nil
}

func (s *Sessions) accountsByIds(ids []uint) ([]Account, error) {
	out := []Account{}
	for start := 0; start < len(ids); start += BatchSize {
		end := start + BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := s.store.GetByIDs(ids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// AnalyzeTeam builds the downline snapshot and hands it to the advisor.
func (s *Sessions) AnalyzeTeam(ctx context.Context, accountId uint) (TeamAnalysis, error) {
	if s.Advisor == nil {
		return TeamAnalysis{}, Validationf("no advisor configured")
	}
	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return TeamAnalysis{}, err
	}
	downline, err := s.Downline(accountId)
	if err != nil {
		return TeamAnalysis{}, err
	}
	return s.Advisor.AnalyzeTeam(ctx, TeamSnapshot{
		Account:  acc.Snapshot(),
		Downline: downline,
	})
}

// PriorityMessage returns the newest unread admin announcement verbatim when
// one exists; the AI composer is consulted only when there is none.
func (s *Sessions) PriorityMessage(ctx context.Context, accountId uint) (PriorityMessage, error) {
	acc, err := s.store.GetByID(accountId)
	if err != nil {
		return PriorityMessage{}, err
	}
	unread, err := s.store.UnreadAnnouncements(accountId)
	if err != nil {
		return PriorityMessage{}, err
	}
	if len(unread) > 0 {
		return PriorityMessage{
			Source:         MessageSourceAdmin,
			Message:        unread[0].Message,
			AnnouncementId: unread[0].Id,
		}, nil
	}
	if s.Advisor == nil {
		return PriorityMessage{}, Validationf("no advisor configured")
	}
	input := MessageInput{Account: acc.Snapshot()}
	levels := s.levels()
	if int(acc.Level)+1 < len(levels) {
		next := LevelByIndex(acc.Level+1, levels)
		input.NextLevel = &next
	}
	message, err := s.Advisor.ComposeMessage(ctx, input)
	if err != nil {
		return PriorityMessage{}, err
	}
	return PriorityMessage{Source: MessageSourceAI, Message: message}, nil
}

// Referrals lists the account's direct referral edges, newest-first.
func (s *Sessions) Referrals(accountId uint) ([]Referral, error) {
	return s.store.Referrals(accountId)
}

func (s *Sessions) UnreadAnnouncements(accountId uint) ([]Announcement, error) {
	return s.store.UnreadAnnouncements(accountId)
}

// MarkAnnouncementRead acknowledges one announcement.
func (s *Sessions) MarkAnnouncementRead(accountId, announcementId uint) error {
	unread, err := s.store.UnreadAnnouncements(accountId)
	if err != nil {
		return err
	}
	for i := range unread {
		if unread[i].Id == announcementId {
			unread[i].Read = true
			return s.store.PutAnnouncement(&unread[i])
		}
	}
	return ErrNotFound
}
