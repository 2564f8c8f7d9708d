package backend

import (
	"context"
	"fmt"
)

// VIP endpoints.

func (c *Client) Plans(ctx context.Context) (map[string]VipPlan, error) {
	data, err := c.Get(ctx, "/vip/plans", nil, nil)
	if err != nil {
		return nil, err
	}

	var plans map[string]VipPlan
	if err := decodeInto(data, &plans); err != nil {
		return nil, fmt.Errorf("decode vip plans: %w", err)
	}
	return plans, nil
}

func (c *Client) CreateOrder(ctx context.Context, userID int64, planType string) (*VipOrder, error) {
	body := map[string]any{
		"userId":   userID,
		"planType": planType,
	}

	data, err := c.Post(ctx, "/vip/create-order", body, nil)
	if err != nil {
		return nil, err
	}

	var order VipOrder
	if err := decodeInto(data, &order); err != nil {
		return nil, fmt.Errorf("decode vip order: %w", err)
	}
	return &order, nil
}

// Pay requests host payment parameters for a created order.
func (c *Client) Pay(ctx context.Context, orderNo, openID string) (*PayParams, error) {
	body := map[string]any{
		"orderNo": orderNo,
		"openId":  openID,
	}

	data, err := c.Post(ctx, "/vip/pay", body, nil)
	if err != nil {
		return nil, err
	}

	var params PayParams
	if err := decodeInto(data, &params); err != nil {
		return nil, fmt.Errorf("decode pay params: %w", err)
	}
	return &params, nil
}

// MockPay settles an order through the test-only payment path.
func (c *Client) MockPay(ctx context.Context, orderNo string) error {
	_, err := c.Post(ctx, "/vip/mock-pay", map[string]any{"orderNo": orderNo}, nil)
	return err
}

// Status fetches the plan-level VIP state for the given user.
func (c *Client) Status(ctx context.Context, userID int64) (*VipStatus, error) {
	data, err := c.Get(ctx, fmt.Sprintf("/vip/status/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}

	var status VipStatus
	if err := decodeInto(data, &status); err != nil {
		return nil, fmt.Errorf("decode vip status: %w", err)
	}
	return &status, nil
}

func (c *Client) Orders(ctx context.Context, userID int64) ([]VipOrder, error) {
	data, err := c.Get(ctx, fmt.Sprintf("/vip/orders/%d", userID), nil, nil)
	if err != nil {
		return nil, err
	}

	var orders []VipOrder
	if err := decodeInto(data, &orders); err != nil {
		return nil, fmt.Errorf("decode vip orders: %w", err)
	}
	return orders, nil
}
