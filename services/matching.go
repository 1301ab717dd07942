package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"mpoint-server/models"
	"mpoint-server/utils"

	"gorm.io/gorm"
)

// ChannelType distinguishes match-backed channels from plain user-pair ones.
type ChannelType string

const (
	ChannelMatch  ChannelType = "match"
	ChannelDirect ChannelType = "direct"
)

// ChatChannel describes how messages between two users are grouped.
type ChatChannel struct {
	Type    ChannelType `json:"type"`
	MatchID uint        `json:"matchID,omitempty"`
	UserA   uint        `json:"userA,omitempty"`
	UserB   uint        `json:"userB,omitempty"`
}

// Key returns the canonical, direction-independent channel identifier:
// match:<id> for match channels, direct:<low>:<high> for user-pair channels
// with the decimal IDs sorted lexicographically.
func (c *ChatChannel) Key() string {
	if c.Type == ChannelMatch {
		return fmt.Sprintf("match:%d", c.MatchID)
	}
	a := strconv.FormatUint(uint64(c.UserA), 10)
	b := strconv.FormatUint(uint64(c.UserB), 10)
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("direct:%s:%s", a, b)
}

// activeMatchStatuses are the statuses under which two users share a live
// match relationship for messaging purposes.
var activeMatchStatuses = []models.MatchStatus{
	models.MatchConnected,
	models.MatchAccepted,
	models.MatchAcceptedBySender,
	models.MatchAcceptedByReceiver,
}

// Matcher resolves chat channels and drives match status transitions.
type Matcher struct {
	db *gorm.DB
}

func NewMatcher(db *gorm.DB) *Matcher {
	return &Matcher{db: db}
}

// ResolveChatChannel derives the channel for messages between two users. If
// an active match exists between them (in either direction) the channel is
// keyed by the match; otherwise it is keyed by the sorted user pair.
func (m *Matcher) ResolveChatChannel(ctx context.Context, userA, userB uint) (*ChatChannel, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot resolve a channel between a user and themselves", utils.ErrValidation)
	}

	var match models.Match
	err := m.db.WithContext(ctx).
		Where("((sender_user_id = ? AND receiver_user_id = ?) OR (sender_user_id = ? AND receiver_user_id = ?)) AND status IN ?",
			userA, userB, userB, userA, activeMatchStatuses).
		First(&match).Error
	if err == nil {
		return &ChatChannel{Type: ChannelMatch, MatchID: match.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up match: %w", err)
	}

	return &ChatChannel{Type: ChannelDirect, UserA: userA, UserB: userB}, nil
}

// matchTransitions lists every permitted status transition. Anything not in
// the table is rejected; there are no implicit or backward moves.
var matchTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchPending: {
		models.MatchAcceptedBySender,
		models.MatchAcceptedByReceiver,
		models.MatchDeclined,
		models.MatchExpired,
	},
	models.MatchAcceptedBySender: {
		models.MatchAccepted,
		models.MatchDeclined,
	},
	models.MatchAcceptedByReceiver: {
		models.MatchAccepted,
		models.MatchDeclined,
	},
	models.MatchAccepted: {
		models.MatchConnected,
		models.MatchDeclined,
	},
	// CONNECTED, DECLINED and EXPIRED are terminal
}

// CanTransition reports whether a match may move from one status to another.
func CanTransition(from, to models.MatchStatus) bool {
	for _, allowed := range matchTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionMatch applies a status transition, rejecting moves the state
// machine does not permit.
func (m *Matcher) TransitionMatch(ctx context.Context, matchID uint, to models.MatchStatus) (*models.Match, error) {
	var match models.Match
	if err := m.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: match %d", utils.ErrNotFound, matchID)
		}
		return nil, fmt.Errorf("loading match: %w", err)
	}

	if !CanTransition(match.Status, to) {
		return nil, fmt.Errorf("%w: match %d cannot move from %s to %s", utils.ErrConflict, matchID, match.Status, to)
	}

	// Guard the status in the WHERE clause so two concurrent transitions
	// cannot both apply.
	result := m.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, match.Status).
		Update("status", to)
	if result.Error != nil {
		return nil, fmt.Errorf("updating match status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: match %d changed concurrently", utils.ErrConflict, matchID)
	}

	match.Status = to
	return &match, nil
}

// Accept records one side's acceptance. When the other side has already
// accepted, the match moves straight to ACCEPTED.
func (m *Matcher) Accept(ctx context.Context, matchID, userID uint) (*models.Match, error) {
	var match models.Match
	if err := m.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: match %d", utils.ErrNotFound, matchID)
		}
		return nil, fmt.Errorf("loading match: %w", err)
	}

	var to models.MatchStatus
	switch userID {
	case match.SenderUserID:
		to = models.MatchAcceptedBySender
		if match.Status == models.MatchAcceptedByReceiver {
			to = models.MatchAccepted
		}
	case match.ReceiverUserID:
		to = models.MatchAcceptedByReceiver
		if match.Status == models.MatchAcceptedBySender {
			to = models.MatchAccepted
		}
	default:
		return nil, fmt.Errorf("%w: user %d is not part of match %d", utils.ErrValidation, userID, matchID)
	}

	return m.TransitionMatch(ctx, matchID, to)
}

// Score band thresholds. Inputs are clamped into [0,100] first.
const (
	scoreNeutralMin = 36
	scorePositivMin = 65
)

// ScoreBand classifies a compatibility score into its display band.
func ScoreBand(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	switch {
	case score >= scorePositivMin:
		return "Positiv"
	case score >= scoreNeutralMin:
		return "Neutral"
	default:
		return "Negativ"
	}
}
