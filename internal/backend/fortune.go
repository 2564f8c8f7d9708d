package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Fortune endpoints. Every call returns the unwrapped envelope data and a
// typed error on any transport or business failure.

const defaultGender = 1

// Calculate computes the horoscope for the given birth info. Gender defaults
// to 1 when unset, matching the backend contract.
func (c *Client) Calculate(ctx context.Context, info BirthInfo) (*FortuneResult, error) {
	if info.Gender == 0 {
		info.Gender = defaultGender
	}

	data, err := c.Post(ctx, "/fortune/calculate", info, nil)
	if err != nil {
		return nil, err
	}

	var result FortuneResult
	if err := decodeInto(data, &result); err != nil {
		return nil, fmt.Errorf("decode calculate result: %w", err)
	}
	return &result, nil
}

// RecommendNames asks the backend for AI name suggestions.
func (c *Client) RecommendNames(ctx context.Context, req NameRecommendRequest) ([]NameRecommendation, error) {
	if req.Gender == 0 {
		req.Gender = defaultGender
	}

	data, err := c.Post(ctx, "/fortune/recommend-names", req, nil)
	if err != nil {
		return nil, err
	}

	var names []NameRecommendation
	if err := decodeInto(data, &names); err != nil {
		return nil, fmt.Errorf("decode name recommendations: %w", err)
	}
	return names, nil
}

// TodayFortune fetches the daily fortune string.
func (c *Client) TodayFortune(ctx context.Context) (string, error) {
	data, err := c.Get(ctx, "/fortune/today-fortune", nil, nil)
	if err != nil {
		return "", err
	}

	var text string
	if err := decodeInto(data, &text); err != nil {
		return "", fmt.Errorf("decode today fortune: %w", err)
	}
	return text, nil
}

// History fetches one page of calculation history.
func (c *Client) History(ctx context.Context, userID int64, page, size int) (*HistoryPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))

	data, err := c.Get(ctx, fmt.Sprintf("/fortune/history/%d", userID), params, nil)
	if err != nil {
		return nil, err
	}

	var result HistoryPage
	if err := decodeInto(data, &result); err != nil {
		return nil, fmt.Errorf("decode history page: %w", err)
	}
	if result.Page == 0 {
		result.Page = page
	}
	if result.Size == 0 {
		result.Size = size
	}
	return &result, nil
}
