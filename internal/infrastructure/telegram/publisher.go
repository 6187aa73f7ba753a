package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"TrendingPress/internal/config"
	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

const parseMode = "HTML"

// Publisher broadcasts posts to a Telegram chat via the bot API.
type Publisher struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
	text     *bluemonday.Policy
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher validates the bot token and chat id.
func NewPublisher(cfg config.TelegramConfig, client *http.Client) (*Publisher, error) {
	if err := validate(cfg.BotToken, cfg.ChatID); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	return &Publisher{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   strings.TrimSuffix(apiURL, "/"),
		client:   client,
		text:     bluemonday.StrictPolicy(),
	}, nil
}

// Platform identifies the publisher.
func (p *Publisher) Platform() domain.Platform {
	return domain.PlatformTelegram
}

// apiResponse covers both {ok:true,result} and {ok:false,error_code,description}.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Result      *struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"result"`
}

// Publish sends a photo with caption when the post has an image, a text message otherwise.
func (p *Publisher) Publish(ctx context.Context, post domain.Post) (domain.Receipt, error) {
	if err := validate(p.botToken, p.chatID); err != nil {
		return domain.Receipt{}, err
	}

	text := p.Caption(post)
	var (
		req *http.Request
		err error
	)
	if post.ImageURL != "" {
		req, err = p.photoRequest(ctx, post.ImageURL, text)
	} else {
		req, err = p.messageRequest(ctx, text)
	}
	if err != nil {
		return domain.Receipt{}, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("telegram: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("telegram: read response: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Receipt{}, fmt.Errorf("telegram: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if !decoded.OK || decoded.Result == nil {
		return domain.Receipt{}, fmt.Errorf("telegram: api rejected: %s", strings.TrimSpace(string(raw)))
	}

	chat := p.chatID
	if decoded.Result.Chat.ID != 0 {
		chat = strconv.FormatInt(decoded.Result.Chat.ID, 10)
	}
	messageID := strconv.FormatInt(decoded.Result.MessageID, 10)
	return domain.Receipt{
		URL: MessageURL(chat, messageID),
		ID:  messageID,
	}, nil
}

// Caption renders the HTML text sent with the post.
func (p *Publisher) Caption(post domain.Post) string {
	var b strings.Builder
	b.WriteString("<b>" + p.escape(post.Title) + "</b>\n")
	b.WriteString("Repo: " + p.escape(post.RepoID))
	if post.Summary != "" {
		b.WriteString("\n" + p.escape(post.Summary))
	}
	return b.String()
}

// escape keeps angle-bracketed words as literal text; the policy pass only normalizes entities.
func (p *Publisher) escape(s string) string {
	return p.text.Sanitize(html.EscapeString(s))
}

func (p *Publisher) photoRequest(ctx context.Context, photoURL, caption string) (*http.Request, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := [][2]string{
		{"chat_id", p.chatID},
		{"photo", photoURL},
		{"caption", caption},
		{"parse_mode", parseMode},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("telegram: write %s: %w", f[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("telegram: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("sendPhoto"), &body)
	if err != nil {
		return nil, fmt.Errorf("telegram: new request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return req, nil
}

func (p *Publisher) messageRequest(ctx context.Context, text string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    p.chatID,
		"text":       text,
		"parse_mode": parseMode,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("telegram: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *Publisher) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", p.apiURL, p.botToken, method)
}

// MessageURL builds the t.me deeplink for a message in a private channel or supergroup.
func MessageURL(chatID, messageID string) string {
	internal, ok := strings.CutPrefix(chatID, "-100")
	if !ok {
		internal = strings.TrimPrefix(chatID, "-")
	}
	return fmt.Sprintf("https://t.me/c/%s/%s", internal, messageID)
}

func validate(botToken, chatID string) error {
	if botToken == "" || chatID == "" {
		return fmt.Errorf("telegram: bot token and chat id required: %w", domain.ErrMissingConfig)
	}
	return nil
}
