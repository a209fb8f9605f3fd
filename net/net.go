package net

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"bfs-chain/api"
)

const (
	HeadPath        = "/chain/head"
	BlocksPath      = "/blocks"
	BlockPath       = "/block/"
	AccountPath     = "/acc/"
	TxPath          = "/tx/"
	TopAccountsPath = "/accounts/top"
)

var ErrNotFound = errors.New("not found")

// Client reads a running node through its explorer API.
type Client struct {
	client *resty.Client
}

func New(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{client: client}
}

func (c *Client) get(path string, query map[string]string, result any) error {
	resp, err := c.client.R().SetQueryParams(query).SetResult(result).Get(path)
	if err != nil {
		return err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.IsError() {
		return fmt.Errorf("get %s: %s: %s", path, resp.Status(), resp.String())
	}
	return nil
}

func (c *Client) Head() (*api.HeadView, error) {
	var head api.HeadView
	err := c.get(HeadPath, nil, &head)
	return &head, err
}

// Blocks returns up to limit of the latest blocks, newest first.
func (c *Client) Blocks(limit int) ([]api.BlockSummary, error) {
	blocks := make([]api.BlockSummary, 0)
	err := c.get(BlocksPath, map[string]string{"limit": strconv.Itoa(limit)}, &blocks)
	return blocks, err
}

// Block fetches a block by number or by 0x hash.
func (c *Client) Block(id string) (*api.BlockView, error) {
	var b api.BlockView
	err := c.get(BlockPath+id, nil, &b)
	return &b, err
}

func (c *Client) Account(address string) (*api.AccountView, error) {
	var acc api.AccountView
	err := c.get(AccountPath+address, nil, &acc)
	return &acc, err
}

func (c *Client) Tx(blockNumber uint64, hash string) (*api.TxView, error) {
	var tx api.TxView
	err := c.get(TxPath+strconv.FormatUint(blockNumber, 10)+"/"+hash, nil, &tx)
	return &tx, err
}

func (c *Client) TopAccounts(limit int) ([]api.AccountView, error) {
	accounts := make([]api.AccountView, 0)
	err := c.get(TopAccountsPath, map[string]string{"limit": strconv.Itoa(limit)}, &accounts)
	return accounts, err
}
