// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP talks to the location logging backend: POST /log stores a fix and
// GET /logs returns all fixes, newest first.
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (h *HTTP) do(req *http.Request, want int) ([]byte, error) {
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("store: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (h *HTTP) Write(ctx context.Context, p Position) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/log", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = h.do(req, http.StatusCreated)
	return err
}

func (h *HTTP) History(ctx context.Context) ([]Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/logs", nil)
	if err != nil {
		return nil, err
	}
	body, err := h.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var out []Position
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("store: decode /logs: %w", err)
	}
	sortByTime(out)
	return out, nil
}
