package reddit

import (
	"context"
	"fmt"
)

// Mirror adapts the client to the mutation pipeline's forum interface.
// Each call exchanges the stored refresh token for a short-lived access
// token; tokens are never cached between mutations.
//
// Moderator actions run under the bot account when one is configured,
// since the acting user need not moderate the subreddit on reddit's side.
type Mirror struct {
	client          *Client
	botRefreshToken string
}

func NewMirror(client *Client, botRefreshToken string) *Mirror {
	return &Mirror{client: client, botRefreshToken: botRefreshToken}
}

func (m *Mirror) Submit(ctx context.Context, refreshToken, subreddit, title, body string) (string, error) {
	accessToken, err := m.accessToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	return m.client.Submit(ctx, accessToken, subreddit, title, body)
}

func (m *Mirror) Edit(ctx context.Context, refreshToken, postID, body string) error {
	accessToken, err := m.accessToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	return m.client.EditPost(ctx, accessToken, postID, body)
}

func (m *Mirror) Approve(ctx context.Context, refreshToken, postID string) error {
	accessToken, err := m.accessToken(ctx, m.modToken(refreshToken))
	if err != nil {
		return err
	}
	return m.client.ApprovePost(ctx, accessToken, postID)
}

func (m *Mirror) SetSticky(ctx context.Context, refreshToken, postID string, sticky bool) error {
	accessToken, err := m.accessToken(ctx, m.modToken(refreshToken))
	if err != nil {
		return err
	}
	return m.client.SetSticky(ctx, accessToken, postID, sticky)
}

func (m *Mirror) modToken(refreshToken string) string {
	if m.botRefreshToken != "" {
		return m.botRefreshToken
	}
	return refreshToken
}

func (m *Mirror) accessToken(ctx context.Context, refreshToken string) (string, error) {
	tokens, err := m.client.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh reddit token: %w", err)
	}
	return tokens.AccessToken, nil
}
