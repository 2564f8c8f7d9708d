package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// User endpoints.

// Login exchanges an external auth code for identity and token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	data, err := c.Post(ctx, "/user/login", req, nil)
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := decodeInto(data, &result); err != nil {
		return nil, fmt.Errorf("decode login result: %w", err)
	}
	return &result, nil
}

func (c *Client) Profile(ctx context.Context, userID int64) (*Profile, error) {
	params := url.Values{}
	params.Set("userId", strconv.FormatInt(userID, 10))

	data, err := c.Get(ctx, "/user/profile", params, nil)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeInto(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, userID int64, nickName, avatar string) error {
	body := map[string]any{"userId": userID}
	if nickName != "" {
		body["nickName"] = nickName
	}
	if avatar != "" {
		body["avatar"] = avatar
	}

	_, err := c.Put(ctx, "/user/profile", body, nil)
	return err
}

// VipStatus fetches the entitlement counters for the given user.
func (c *Client) VipStatus(ctx context.Context, userID int64) (*VipStatus, error) {
	params := url.Values{}
	params.Set("userId", strconv.FormatInt(userID, 10))

	data, err := c.Get(ctx, "/user/vip-status", params, nil)
	if err != nil {
		return nil, err
	}

	var status VipStatus
	if err := decodeInto(data, &status); err != nil {
		return nil, fmt.Errorf("decode vip status: %w", err)
	}
	return &status, nil
}

func (c *Client) UpgradeVip(ctx context.Context, userID int64, level int) error {
	body := map[string]any{
		"userId":   userID,
		"vipLevel": level,
	}
	_, err := c.Post(ctx, "/user/upgrade-vip", body, nil)
	return err
}
