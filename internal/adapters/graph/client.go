/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package graph

import (
    "bytes"
    "context"
    "encoding/base64"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "sync"
    "time"

    "github.com/Reventlow/fynbus-chronicle/internal/config"
    "github.com/rs/zerolog"
)

// Attachment is a file carried on an outgoing message.
type Attachment struct {
    Filename string
    Content  []byte
    MimeType string
}

// Message is the transport-independent outgoing mail shape.
type Message struct {
    From        string
    To          []string
    Cc          []string
    Bcc         []string
    Subject     string
    Body        string
    HTML        bool
    Attachments []Attachment
}

// TokenCache holds one bearer token for the owning client. The mutex
// guards both the validity check and the refresh, so at most one
// credential exchange is in flight at a time; concurrent senders block
// on the lock and reuse the fresh token.
type TokenCache struct {
    mu        sync.Mutex
    margin    time.Duration
    now       func() time.Time
    value     string
    expiresAt time.Time
}

// valid reports whether the cached token can still be used, applying the
// safety margin so a token never expires mid-request. Caller holds mu.
func (t *TokenCache) valid() bool {
    return t.value != "" && t.now().Before(t.expiresAt.Add(-t.margin))
}

// Client sends mail through the Microsoft Graph sendMail endpoint using
// the OAuth2 client-credentials flow.
type Client struct {
    clientID     string
    clientSecret string
    tenantID     string
    tokenURL     string
    graphURL     string
    http         *http.Client
    log          zerolog.Logger
    cache        TokenCache
}

func NewClient(cfg config.Config, log zerolog.Logger) (*Client, error) {
    if cfg.MSClientID == "" || cfg.MSClientSecret == "" {
        return nil, errors.New("graph: missing client id or secret")
    }
    return &Client{
        clientID:     cfg.MSClientID,
        clientSecret: cfg.MSClientSecret,
        tenantID:     cfg.MSTenantID,
        tokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.MSTenantID),
        graphURL:     "https://graph.microsoft.com/v1.0",
        http:         &http.Client{Timeout: cfg.HTTPTimeout},
        log:          log,
        cache:        TokenCache{margin: cfg.TokenMargin, now: time.Now},
    }, nil
}

// token returns a valid bearer token, exchanging client credentials when
// the cached one is missing or inside the safety margin. The lock is held
// across the exchange; that single network call is the only blocking I/O
// permitted under it.
func (c *Client) token(ctx context.Context) (string, error) {
    c.cache.mu.Lock()
    defer c.cache.mu.Unlock()
    if c.cache.valid() { return c.cache.value, nil }

    form := url.Values{}
    form.Set("grant_type", "client_credentials")
    form.Set("client_id", c.clientID)
    form.Set("client_secret", c.clientSecret)
    form.Set("scope", "https://graph.microsoft.com/.default")

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
    if err != nil { return "", err }
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    resp, err := c.http.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        b, _ := io.ReadAll(resp.Body)
        return "", fmt.Errorf("graph token status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
    }

    var tok struct {
        AccessToken string `json:"access_token"`
        ExpiresIn   int    `json:"expires_in"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil { return "", err }
    if tok.AccessToken == "" { return "", errors.New("graph: empty access token") }
    if tok.ExpiresIn <= 0 { tok.ExpiresIn = 3599 }

    c.cache.value = tok.AccessToken
    c.cache.expiresAt = c.cache.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
    c.log.Debug().Msg("graph: acquired new access token")
    return c.cache.value, nil
}

type recipient struct {
    EmailAddress struct {
        Address string `json:"address"`
    } `json:"emailAddress"`
}

func toRecipients(addrs []string) []recipient {
    out := make([]recipient, 0, len(addrs))
    for _, a := range addrs {
        var r recipient
        r.EmailAddress.Address = a
        out = append(out, r)
    }
    return out
}

type filePayload struct {
    ODataType    string `json:"@odata.type"`
    Name         string `json:"name"`
    ContentType  string `json:"contentType"`
    ContentBytes string `json:"contentBytes"`
}

type messagePayload struct {
    Subject string `json:"subject"`
    Body    struct {
        ContentType string `json:"contentType"`
        Content     string `json:"content"`
    } `json:"body"`
    ToRecipients  []recipient   `json:"toRecipients"`
    CcRecipients  []recipient   `json:"ccRecipients,omitempty"`
    BccRecipients []recipient   `json:"bccRecipients,omitempty"`
    Attachments   []filePayload `json:"attachments,omitempty"`
}

type sendMailPayload struct {
    Message         messagePayload `json:"message"`
    SaveToSentItems bool           `json:"saveToSentItems"`
}

func buildPayload(msg Message) sendMailPayload {
    var p sendMailPayload
    p.SaveToSentItems = true
    p.Message.Subject = msg.Subject
    p.Message.Body.Content = msg.Body
    if msg.HTML {
        p.Message.Body.ContentType = "HTML"
    } else {
        p.Message.Body.ContentType = "Text"
    }
    p.Message.ToRecipients = toRecipients(msg.To)
    if len(msg.Cc) > 0 { p.Message.CcRecipients = toRecipients(msg.Cc) }
    if len(msg.Bcc) > 0 { p.Message.BccRecipients = toRecipients(msg.Bcc) }
    for _, a := range msg.Attachments {
        mime := a.MimeType
        if mime == "" { mime = "application/octet-stream" }
        p.Message.Attachments = append(p.Message.Attachments, filePayload{
            ODataType:    "#microsoft.graph.fileAttachment",
            Name:         a.Filename,
            ContentType:  mime,
            ContentBytes: base64.StdEncoding.EncodeToString(a.Content),
        })
    }
    return p
}

// SendMail delivers one message. The sender mailbox must hold the
// Mail.Send application permission in the tenant.
func (c *Client) SendMail(ctx context.Context, msg Message) error {
    if len(msg.To) == 0 { return errors.New("graph: no recipients") }
    if msg.From == "" { return errors.New("graph: no sender address") }

    tok, err := c.token(ctx)
    if err != nil { return err }

    b, err := json.Marshal(buildPayload(msg))
    if err != nil { return err }

    u := c.graphURL + "/users/" + url.PathEscape(msg.From) + "/sendMail"
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Authorization", "Bearer "+tok)
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        body, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("graph sendMail status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
    }

    c.log.Info().Str("from", msg.From).Strs("to", msg.To).Str("subject", msg.Subject).Msg("email sent via graph")
    return nil
}
