package telegram

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxMessageBytes = 4096
	maxCaptionBytes = 1024
	maxDownload     = 20 << 20
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool
}

type Client struct {
	bot        *tgbotapi.BotAPI
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		bot:        bot,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type Update = tgbotapi.Update

type Message = tgbotapi.Message

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *Client) SendTyping(chatID int64) {
	_, _ = c.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

// SendText sends text, split into as many messages as Telegram's size limit
// requires.
func (c *Client) SendText(chatID int64, text string) error {
	for _, p := range splitByBytes(text, maxMessageBytes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, p)); err != nil {
			return err
		}
	}
	return nil
}

// SendDocument uploads data as a file attachment.
func (c *Client) SendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = truncateByBytes(caption, maxCaptionBytes)
	_, err := c.bot.Send(doc)
	return err
}

// SendPhotoDataURL sends a base64 data URI as a photo.
func (c *Client) SendPhotoDataURL(chatID int64, dataURL string, caption string) error {
	mimeType, data, err := decodeDataURL(dataURL)
	if err != nil {
		return err
	}

	name := "preview.jpg"
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		name = "preview" + exts[0]
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = truncateByBytes(caption, maxCaptionBytes)

	_, err = c.bot.Send(photo)
	return err
}

// DownloadFile fetches a file the user sent. Files above 20 MB are refused,
// which is also the Bot API's own download limit.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("telegram file download %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("telegram file %s exceeds %d bytes", fileID, maxDownload)
	}
	c.logger.Debug("file downloaded", "file_id", fileID, "bytes", len(data))
	return data, nil
}

func decodeDataURL(value string) (string, []byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil, errors.New("empty data url")
	}

	mimeType, payload := "image/jpeg", value
	if strings.HasPrefix(value, "data:") {
		meta, rest, ok := strings.Cut(value, ",")
		if !ok {
			return "", nil, errors.New("invalid data url")
		}
		payload = rest
		if m, _, _ := strings.Cut(strings.TrimPrefix(meta, "data:"), ";"); strings.TrimSpace(m) != "" {
			mimeType = strings.TrimSpace(m)
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mimeType, data, nil
}

func splitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	var buf strings.Builder
	buf.Grow(maxBytes)

	for _, r := range text {
		n := utf8.RuneLen(r)
		if n < 0 {
			n = len(string(r))
		}
		if buf.Len() > 0 && buf.Len()+n > maxBytes {
			out = append(out, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		n := utf8.RuneLen(r)
		if n < 0 {
			n = len(string(r))
		}
		if buf.Len()+n > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
