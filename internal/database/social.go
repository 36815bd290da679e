package database

import (
	"context"
	"fmt"

	"github.com/benvon/social-momentum/internal/models"
	"github.com/google/uuid"
)

// MessageRepository reads chat messages
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// RecentSentMessages returns the most recent messages sent by a user
func (r *MessageRepository) RecentSentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, sent_at
		FROM messages
		WHERE sender_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer closeRows(rows)

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.SentAt = utc(m.SentAt)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// FriendRepository reads friend requests and friendships
type FriendRepository struct {
	db *DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// RecentFriendRequests returns the most recent outgoing friend requests of a user
func (r *FriendRepository) RecentFriendRequests(ctx context.Context, userID uuid.UUID, limit int) ([]models.FriendRequest, error) {
	query := `
		SELECT id, from_user_id, to_user_id, status, created_at
		FROM friend_requests
		WHERE from_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend requests: %w", err)
	}
	defer closeRows(rows)

	var requests []models.FriendRequest
	for rows.Next() {
		var fr models.FriendRequest
		if err := rows.Scan(&fr.ID, &fr.FromUserID, &fr.ToUserID, &fr.Status, &fr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		fr.CreatedAt = utc(fr.CreatedAt)
		requests = append(requests, fr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend requests: %w", err)
	}

	return requests, nil
}

// CountFriends returns the number of accepted friendships of a user
func (r *FriendRepository) CountFriends(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM friendships WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return count, nil
}

// ListFriends returns up to limit friends with their display names
func (r *FriendRepository) ListFriends(ctx context.Context, userID uuid.UUID, limit int) ([]models.Friend, error) {
	query := `
		SELECT p.id, p.display_name
		FROM friendships f
		JOIN profiles p ON p.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY p.last_seen_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer closeRows(rows)

	var friends []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}

	return friends, nil
}
