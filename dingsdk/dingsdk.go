package dingsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DingContent struct {
	Content string `json:"content"`
}
type DingAt struct {
	IsAtAll bool `json:"isAtAll"`
}
type DingNotify struct {
	MsgType string      `json:"msgtype"`
	Text    DingContent `json:"text"`
	At      DingAt      `json:"at"`
}

type DingResult struct {
	ErrCode int64  `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type DingSdk struct {
	url string
}

func NewDingSdk(url string) *DingSdk {
	sdk := &DingSdk{
		url: url,
	}
	return sdk
}

func (sdk *DingSdk) Notify(notify *DingNotify) (*DingResult, error) {
	requestJson, _ := json.Marshal(notify)
	req, err := http.NewRequest("POST", sdk.url, strings.NewReader(string(requestJson)))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accepts", "application/json")
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("response status code: %d", resp.StatusCode)
	}
	respBody, _ := io.ReadAll(resp.Body)
	dingResult := new(DingResult)
	err = json.Unmarshal(respBody, dingResult)
	if err != nil {
		return nil, err
	}
	if dingResult.ErrCode != 0 || dingResult.ErrMsg != "ok" {
		return nil, fmt.Errorf("code: %d, err: %s", dingResult.ErrCode, dingResult.ErrMsg)
	}
	return dingResult, nil
}

// TradeNotify posts a one-line summary of a committed trade.
func (sdk *DingSdk) TradeNotify(vault string, amountIn, profit, slot uint64) (*DingResult, error) {
	ttStr := time.Now().Format("2006-01-02 15:04:05")
	items := make([]string, 0)
	items = append(items, "arbitrage committed: ")
	items = append(items, fmt.Sprintf("vault: %s;", vault))
	items = append(items, fmt.Sprintf("amount: %s;", decimal.NewFromInt(int64(amountIn)).Div(decimal.NewFromInt(1000000)).StringFixed(2)))
	items = append(items, fmt.Sprintf("profit: %s;", decimal.NewFromInt(int64(profit)).Div(decimal.NewFromInt(1000000)).StringFixed(2)))
	items = append(items, fmt.Sprintf("slot: %d;", slot))
	items = append(items, fmt.Sprintf("time: %s;", ttStr))
	return sdk.Notify(&DingNotify{
		MsgType: "text",
		Text: DingContent{
			Content: strings.Join(items, "\n"),
		},
		At: DingAt{
			IsAtAll: false,
		},
	})
}
