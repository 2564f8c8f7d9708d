package backend

import (
	"bytes"
	"encoding/json"
)

// Envelope wraps every backend reply. Code 200 is the sole success
// discriminator, independent of the transport status.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

const codeOK = 200

// BirthInfo is the calculate request body.
type BirthInfo struct {
	UserID    int64  `json:"userId,omitempty"`
	UserName  string `json:"userName"`
	BirthDate string `json:"birthDate"`
	BirthTime string `json:"birthTime"`
	Gender    int    `json:"gender"`
}

// FortuneResult is a single horoscope calculation as returned by the
// backend.
type FortuneResult struct {
	ID                  int64                `json:"id,omitempty"`
	Lunar               string               `json:"lunar"`
	GanZhi              string               `json:"ganZhi"`
	WuXing              string               `json:"wuXing"`
	WuXingLack          string               `json:"wuXingLack"`
	ShengXiao           string               `json:"shengXiao"`
	AiAnalysis          string               `json:"aiAnalysis"`
	NameAnalysis        string               `json:"nameAnalysis,omitempty"`
	NameRecommendations []NameRecommendation `json:"nameRecommendations,omitempty"`
	CreateTime          string               `json:"createTime,omitempty"`
}

type NameRecommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Score  int    `json:"score,omitempty"`
}

type NameRecommendRequest struct {
	UserID     int64  `json:"userId,omitempty"`
	Surname    string `json:"surname"`
	Gender     int    `json:"gender"`
	WuXingLack string `json:"wuXingLack"`
	GanZhi     string `json:"ganZhi"`
	BirthYear  int    `json:"birthYear,omitempty"`
	BirthMonth int    `json:"birthMonth,omitempty"`
	BirthDay   int    `json:"birthDay,omitempty"`
	BirthHour  int    `json:"birthHour,omitempty"`
}

// HistoryPage is one page of calculation history, replaced wholesale on each
// fetch.
type HistoryPage struct {
	List       []FortuneResult `json:"list"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	TotalPages int             `json:"totalPages"`
}

// UnmarshalJSON accepts both the paginated object shape and the bare-array
// shape older backend builds return for the history endpoint.
func (p *HistoryPage) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.List)
	}

	type page HistoryPage
	var v page
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = HistoryPage(v)
	return nil
}

type LoginRequest struct {
	Code     string `json:"code"`
	NickName string `json:"nickName,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type LoginResult struct {
	UserID    int64  `json:"userId"`
	OpenID    string `json:"openId"`
	Token     string `json:"token"`
	IsNewUser bool   `json:"isNewUser"`
}

type Profile struct {
	UserID             int64  `json:"userId"`
	NickName           string `json:"nickName"`
	Avatar             string `json:"avatar"`
	IsVip              bool   `json:"isVip"`
	VipExpireTime      string `json:"vipExpireTime,omitempty"`
	TotalAnalysisCount int    `json:"totalAnalysisCount"`
}

// VipStatus covers both status endpoints: /user/vip-status carries the
// entitlement counters, /vip/status/{userId} the plan fields.
type VipStatus struct {
	UserID                 int64  `json:"userId,omitempty"`
	IsVip                  bool   `json:"isVip"`
	VipLevel               int    `json:"vipLevel,omitempty"`
	VipExpireTime          string `json:"vipExpireTime,omitempty"`
	PlanType               string `json:"planType,omitempty"`
	ExpireTime             string `json:"expireTime,omitempty"`
	RemainingAnalysisCount int    `json:"remainingAnalysisCount,omitempty"`
	TotalAnalysisCount     int    `json:"totalAnalysisCount,omitempty"`
}

type VipPlan struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// VipOrder is a created-but-possibly-unpaid order. Unpaid orders expire
// server-side; the client never cancels them.
type VipOrder struct {
	OrderNo  string  `json:"orderNo"`
	Amount   float64 `json:"amount"`
	PlanType string  `json:"planType"`
	Status   string  `json:"status,omitempty"`
}

// PayParams are the host payment API parameters returned by /vip/pay.
type PayParams struct {
	AppID     string `json:"appId"`
	TimeStamp string `json:"timeStamp"`
	NonceStr  string `json:"nonceStr"`
	Package   string `json:"package"`
	SignType  string `json:"signType"`
	PaySign   string `json:"paySign"`
}
